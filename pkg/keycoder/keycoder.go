package keycoder

import (
	"bytes"
	"crypto/aes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"golang.org/x/crypto/scrypt"
)

const (
	FormatWIF Format = iota
	FormatHex
	FormatBase64
	FormatBIP38
)

const (
	bip38PayloadLen     = 38
	bip38NonECPrefix    = 0x42
	bip38FlagNonEC      = 0xc0
	bip38FlagCompressed = 0x20
)

var (
	ErrInvalidKey       = fmt.Errorf("invalid or malformed private key")
	ErrWrongPassphrase  = fmt.Errorf("wrong bip38 passphrase")
	ErrUnsupportedBIP38 = fmt.Errorf("unsupported bip38 variant, only non ec-multiplied keys are accepted")

	formatString = map[Format]string{
		FormatWIF:    "wif",
		FormatHex:    "hex",
		FormatBase64: "base64",
		FormatBIP38:  "bip38",
	}
)

// Format is the encoding of externally supplied private key material.
type Format int

func (f Format) String() string {
	return formatString[f]
}

// ParseFormat returns the Format named by the given string.
func ParseFormat(format string) (Format, error) {
	for f, s := range formatString {
		if s == strings.ToLower(format) {
			return f, nil
		}
	}
	return 0, fmt.Errorf(
		"unknown key format, must be one of: wif | hex | base64 | bip38",
	)
}

// IsBIP38 returns whether the given key material looks like a BIP38
// encrypted key. Useful to decide upfront whether to prompt for a
// passphrase.
func IsBIP38(keyData string) bool {
	return strings.HasPrefix(keyData, "6P")
}

// Decode decodes private key material in the given format. The passphrase is
// used only for BIP38 keys, the network only to verify the BIP38 address
// hash. It returns the key and whether its public key is compressed.
func Decode(
	keyData string, format Format, passphrase string, net *chaincfg.Params,
) (*btcec.PrivateKey, bool, error) {
	switch format {
	case FormatWIF:
		wif, err := btcutil.DecodeWIF(keyData)
		if err != nil {
			return nil, false, ErrInvalidKey
		}
		return wif.PrivKey, wif.CompressPubKey, nil
	case FormatHex:
		buf, err := hex.DecodeString(keyData)
		if err != nil || len(buf) != 32 {
			return nil, false, ErrInvalidKey
		}
		priv, _ := btcec.PrivKeyFromBytes(buf)
		return priv, true, nil
	case FormatBase64:
		buf, err := base64.StdEncoding.DecodeString(keyData)
		if err != nil || len(buf) != 32 {
			return nil, false, ErrInvalidKey
		}
		priv, _ := btcec.PrivKeyFromBytes(buf)
		return priv, true, nil
	case FormatBIP38:
		return decodeBIP38(keyData, passphrase, net)
	default:
		return nil, false, ErrInvalidKey
	}
}

// AddressFromKey derives the legacy p2pkh address of the given key.
func AddressFromKey(
	priv *btcec.PrivateKey, compressed bool, net *chaincfg.Params,
) (string, error) {
	pubKey := priv.PubKey()
	serialized := pubKey.SerializeCompressed()
	if !compressed {
		serialized = pubKey.SerializeUncompressed()
	}
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(serialized), net)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// decodeBIP38 decrypts a non ec-multiplied BIP38 key as of the spec:
// scrypt of the passphrase salted with the address hash, then AES-256
// decryption of the two 16-byte halves xored with the first derived half.
// A mismatch of the recomputed address hash means a wrong passphrase.
func decodeBIP38(
	keyData, passphrase string, net *chaincfg.Params,
) (*btcec.PrivateKey, bool, error) {
	payload, version, err := base58.CheckDecode(keyData)
	if err != nil {
		return nil, false, ErrInvalidKey
	}
	if version != 0x01 || len(payload) != bip38PayloadLen {
		return nil, false, ErrInvalidKey
	}
	if payload[0] != bip38NonECPrefix {
		return nil, false, ErrUnsupportedBIP38
	}
	flag := payload[1]
	if flag&bip38FlagNonEC != bip38FlagNonEC {
		return nil, false, ErrUnsupportedBIP38
	}
	compressed := flag&bip38FlagCompressed != 0
	addrHash := payload[2:6]
	encrypted := payload[6:]

	derived, err := scrypt.Key([]byte(passphrase), addrHash, 16384, 8, 8, 64)
	if err != nil {
		return nil, false, err
	}
	derivedHalf1, derivedHalf2 := derived[:32], derived[32:]

	block, err := aes.NewCipher(derivedHalf2)
	if err != nil {
		return nil, false, err
	}
	plain := make([]byte, 32)
	block.Decrypt(plain[:16], encrypted[:16])
	block.Decrypt(plain[16:], encrypted[16:])
	for i := range plain {
		plain[i] ^= derivedHalf1[i]
	}

	priv, _ := btcec.PrivKeyFromBytes(plain)
	address, err := AddressFromKey(priv, compressed, net)
	if err != nil {
		return nil, false, err
	}
	checksum := chainhash.DoubleHashB([]byte(address))[:4]
	if !bytes.Equal(checksum, addrHash) {
		return nil, false, ErrWrongPassphrase
	}
	return priv, compressed, nil
}
