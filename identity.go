package dashauth

import "strings"

// NormalizeIdentity canonicalizes a login identifier into the identity key
// used for rate-limit counters and audit correlation: trimmed and
// lower-cased. Pure function.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// ValidateIdentity checks that identity is a well-formed email address under
// one of the approved organizational domains. Pure function; runs before any
// network or storage I/O. Violations return [ErrInvalidEmailDomain].
func ValidateIdentity(identity string, approvedDomains []string) error {
	local, domain, ok := strings.Cut(identity, "@")
	if !ok || local == "" || domain == "" {
		return newAuthError(ErrInvalidEmailDomain, "malformed address")
	}
	if strings.ContainsAny(local, " \t") || strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return newAuthError(ErrInvalidEmailDomain, "malformed address")
	}

	for _, approved := range approvedDomains {
		if strings.EqualFold(domain, approved) {
			return nil
		}
	}
	return newAuthError(ErrInvalidEmailDomain, "domain "+domain+" is not approved")
}
