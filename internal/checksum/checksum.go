// Package checksum computes content fingerprints used to skip unchanged documents.
package checksum

import "github.com/inful/mdfp"

// Document returns the fingerprint of a document from its raw metadata block
// and body. The path is folded into the body so that moving a file changes it.
func Document(path, metadata, body string) string {
	return mdfp.CalculateFingerprintFromParts(metadata, path+"\n"+body)
}
