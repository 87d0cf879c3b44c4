// Package bankload parses a Bank Package artifact, validates its
// structural invariants, verifies its canonical hash and HMAC signature,
// and freezes the result into a *bank.Package. Once Load returns
// successfully the artifact is immutable: nothing in this package offers a
// way to mutate a loaded bank.
package bankload

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/veridex/faceline/internal/canon"
	"github.com/veridex/faceline/internal/corerr"
	"github.com/veridex/faceline/pkg/bank"
)

// Config is the per-environment state Load needs that cannot come from the
// artifact itself: the HMAC signing key, and an optional whitelist of
// bank hashes allowed to back new sessions. No part of this is a package
// global — callers construct and pass it explicitly.
type Config struct {
	SigningKey    []byte
	AllowedHashes map[string]bool // nil or empty means unrestricted
}

// Load parses and validates raw, verifying its canonical hash and
// signature against cfg, and returns the frozen bank on success. When
// cfg.SigningKey is empty the signature is not checked at all.
func Load(raw []byte, cfg Config) (*bank.Package, error) {
	root, err := canon.Parse(raw)
	if err != nil {
		return nil, err
	}

	var art wireArtifact
	if err := json.Unmarshal(raw, &art); err != nil {
		return nil, corerr.Wrap(corerr.EBankDefect, "bank artifact does not match the expected shape", err)
	}

	if err := verifyTrustRoot(root, art.Meta, cfg); err != nil {
		return nil, err
	}

	if len(cfg.AllowedHashes) > 0 && !cfg.AllowedHashes[art.Meta.BankHash] {
		return nil, corerr.New(corerr.EBankNotFound, "bank hash is not on the allowed list: "+art.Meta.BankHash)
	}

	return build(art)
}

// verifyTrustRoot recomputes the canonical hash over the artifact with the
// trust-root fields of meta blanked out, checks it against meta.bankHash,
// then, when cfg.SigningKey is non-empty, checks the HMAC-SHA256 signature
// over those same canonical bytes against meta.signature.
func verifyTrustRoot(root canon.Node, meta wireMeta, cfg Config) error {
	metaNode, ok := root.Map["meta"]
	if !ok || metaNode.Kind != canon.KindMap {
		return corerr.New(corerr.EBankDefect, "artifact is missing a meta object")
	}
	metaNode.Map["bankHash"] = canon.String("")
	metaNode.Map["signature"] = canon.String("")
	metaNode.Map["signedBy"] = canon.String("")
	root.Map["meta"] = metaNode

	canonicalBytes, err := canon.Serialize(root)
	if err != nil {
		return corerr.Wrap(corerr.EBankDefect, "artifact is not canonicalizable", err)
	}

	sum := sha256.Sum256(canonicalBytes)
	recomputed := hex.EncodeToString(sum[:])
	if recomputed != meta.BankHash {
		return corerr.New(corerr.EBankDefect, "canonical hash does not match meta.bankHash")
	}

	if len(cfg.SigningKey) > 0 {
		mac := hmac.New(sha256.New, cfg.SigningKey)
		mac.Write(canonicalBytes)
		expected := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(expected), []byte(meta.Signature)) {
			return corerr.New(corerr.EBankSignatureInvalid, "HMAC signature does not verify")
		}
	}
	return nil
}
