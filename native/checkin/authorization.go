package checkin

import (
	"encoding/hex"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"courseledger/crypto"
)

// AttestationDomainV1 is the domain separator mixed into every signed
// check-in digest. It pins the protocol name and version so a signature
// produced here can never be replayed against another protocol.
const AttestationDomainV1 = "COURSELEDGER_CHECKIN_V1"

const signatureLength = 65

// CanonicalAttestation renders the canonical message bound by a check-in
// authorization. The message text is folded in as its keccak digest so the
// encoding stays unambiguous regardless of separator characters in the text.
func CanonicalAttestation(user [20]byte, day uint64, message string) string {
	builder := strings.Builder{}
	builder.WriteString(AttestationDomainV1)
	builder.WriteString("|user=")
	builder.WriteString(hex.EncodeToString(user[:]))
	builder.WriteString("|day=")
	builder.WriteString(fmt.Sprintf("%d", day))
	builder.WriteString("|msg=")
	builder.WriteString(hex.EncodeToString(ethcrypto.Keccak256([]byte(message))))
	return builder.String()
}

// AttestationDigest computes the keccak256 digest the trusted authorizer signs.
func AttestationDigest(user [20]byte, day uint64, message string) []byte {
	return ethcrypto.Keccak256([]byte(CanonicalAttestation(user, day, message)))
}

// VerifyAttestation reports whether signature is a valid approval of the
// (user, day, message) tuple by the supplied trusted authorizer. Every failure
// mode (malformed signature, recovery failure, signer mismatch) yields false.
func VerifyAttestation(authorizer [20]byte, user [20]byte, day uint64, message string, signature []byte) bool {
	if authorizer == ([20]byte{}) {
		return false
	}
	if len(signature) != signatureLength {
		return false
	}
	digest := AttestationDigest(user, day, message)
	pubKey, err := ethcrypto.SigToPub(digest, signature)
	if err != nil {
		return false
	}
	recovered := ethcrypto.PubkeyToAddress(*pubKey)
	return [20]byte(recovered) == authorizer
}

// SignAttestation produces the 65-byte approval token for the supplied tuple.
// Used by the operator CLI and by tests; the node itself never signs.
func SignAttestation(key *crypto.PrivateKey, user [20]byte, day uint64, message string) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("checkin: signing key required")
	}
	return key.Sign(AttestationDigest(user, day, message))
}
