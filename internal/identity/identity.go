package identity

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder names recognized in pattern templates.
const (
	PlaceholderUsername        = "username"
	PlaceholderTenantDomain    = "tenant-domain"
	PlaceholderTenantID        = "tenant-id"
	PlaceholderUserstoreDomain = "userstore-domain"
)

// PrimaryUserstoreDomain is the default user-store domain. It is implicit in
// log lines, so its placeholder resolves to the empty string.
const PrimaryUserstoreDomain = "PRIMARY"

// User identifies the person whose occurrences are being redacted, together
// with the pseudonym that replaces them. Read-only once constructed.
type User struct {
	Username        string `json:"username"`
	TenantDomain    string `json:"tenant_domain"`
	TenantID        int    `json:"tenant_id"`
	UserstoreDomain string `json:"userstore_domain"`
	Pseudonym       string `json:"pseudonym"`
}

// Validate checks that the identity is complete enough to resolve placeholders.
func (u User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("%w: username is empty", ErrInvalidIdentity)
	}
	if u.TenantDomain == "" {
		return fmt.Errorf("%w: tenant domain is empty", ErrInvalidIdentity)
	}
	if u.TenantID < 0 {
		return fmt.Errorf("%w: tenant id %d is negative", ErrInvalidIdentity, u.TenantID)
	}
	if u.UserstoreDomain == "" {
		return fmt.Errorf("%w: user-store domain is empty", ErrInvalidIdentity)
	}
	if u.Pseudonym == "" {
		return fmt.Errorf("%w: pseudonym is empty", ErrInvalidIdentity)
	}
	return nil
}

// Resolve builds the placeholder mapping for one user. The mapping contains an
// entry for every placeholder a rule template may reference.
func (u User) Resolve() (map[string]string, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	mapping := map[string]string{
		PlaceholderUsername:     u.Username,
		PlaceholderTenantDomain: u.TenantDomain,
		PlaceholderTenantID:     strconv.Itoa(u.TenantID),
	}

	// The primary domain never appears in log text; others do, with the
	// first letter capitalized (the form user stores render them in).
	if strings.EqualFold(u.UserstoreDomain, PrimaryUserstoreDomain) {
		mapping[PlaceholderUserstoreDomain] = ""
	} else {
		mapping[PlaceholderUserstoreDomain] = capitalize(u.UserstoreDomain)
	}

	return mapping, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
