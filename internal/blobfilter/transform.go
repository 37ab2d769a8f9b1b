package blobfilter

import (
	"bytes"
	"regexp"
)

const (
	// SanitizedURL replaces every credential-bearing repository URL.
	SanitizedURL = "https://github.com/MichaelRouhana/FYP-Backend.git"

	// MainBranchLine is the canonical branch reference written by RenameBranch.
	MainBranchLine = "git branch: 'main'"

	// CredentialsLine is inserted after branch references lacking credentials.
	CredentialsLine = "credentialsId: 'github_credentials',"

	branchMarker      = "git branch:"
	credentialsMarker = "credentialsId"
)

var (
	credentialURLPattern = regexp.MustCompile(`https://charbelba:github_pat_[^@]+@github\.com/charbelba/ERP\.git`)

	// [\t\n\v\f\r ] mirrors the ASCII whitespace class, \s in RE2 lacks \v.
	masterBranchPattern = regexp.MustCompile(`git branch:[\t\n\v\f\r ]*['"]master['"]`)
)

// SanitizeCredentialURL replaces every embedded personal-access-token URL
// with SanitizedURL and returns the number of replacements.
func SanitizeCredentialURL(data []byte) ([]byte, int) {
	return replaceAll(credentialURLPattern, data, []byte(SanitizedURL))
}

// RenameBranch rewrites `git branch: 'master'` (either quote style, any
// whitespace after the colon) to MainBranchLine.
func RenameBranch(data []byte) ([]byte, int) {
	return replaceAll(masterBranchPattern, data, []byte(MainBranchLine))
}

// InjectCredentials inserts CredentialsLine after each line that references a
// git branch without a credentialsId. Injection is skipped entirely when
// credentialsId appears anywhere in data.
func InjectCredentials(data []byte) ([]byte, int) {
	marker := []byte(branchMarker)
	creds := []byte(credentialsMarker)

	if !bytes.Contains(data, marker) || bytes.Contains(data, creds) {
		return data, 0
	}

	lines := bytes.Split(data, []byte("\n"))
	out := make([][]byte, 0, len(lines)+1)
	injected := 0

	for _, line := range lines {
		out = append(out, line)

		if bytes.Contains(line, marker) && !bytes.Contains(line, creds) {
			indent := leadingWhitespace(line)
			inserted := make([]byte, 0, len(indent)+len(CredentialsLine))
			inserted = append(inserted, indent...)
			inserted = append(inserted, CredentialsLine...)
			out = append(out, inserted)
			injected++
		}
	}

	return bytes.Join(out, []byte("\n")), injected
}

// Transform applies the three rewrites in order.
func Transform(data []byte) []byte {
	out, _ := transform(data)
	return out
}

func transform(data []byte) ([]byte, Result) {
	var res Result

	data, res.URLsSanitized = SanitizeCredentialURL(data)
	data, res.BranchesRenamed = RenameBranch(data)
	data, res.CredentialsInjected = InjectCredentials(data)

	return data, res
}

func replaceAll(re *regexp.Regexp, data, repl []byte) ([]byte, int) {
	n := len(re.FindAllIndex(data, -1))
	if n == 0 {
		return data, 0
	}

	return re.ReplaceAllLiteral(data, repl), n
}

func leadingWhitespace(line []byte) []byte {
	trimmed := bytes.TrimLeft(line, " \t\n\v\f\r")
	return line[:len(line)-len(trimmed)]
}
