package service

import (
	"regexp"
	"strings"

	"github.com/ittaigolde/spkkn-words/internal/domain"
)

// ContentPolicyService screens buyer-supplied names and messages before a
// claim commits. It stands in for an external moderation collaborator and is
// consumed as a plain pass/fail predicate.
type ContentPolicyService struct{}

func NewContentPolicyService() *ContentPolicyService {
	return &ContentPolicyService{}
}

var (
	urlPattern    = regexp.MustCompile(`(?i)https?://|www\.|\.com|\.net|\.org|\.io|\.ai`)
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	handlePattern = regexp.MustCompile(`@\w+`)
	phonePattern  = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

var blockedTerms = []string{
	"fuck",
	"shit",
	"bitch",
	"asshole",
	"damn",
}

// Check returns domain.ContentRejectedError when the text violates policy.
func (s *ContentPolicyService) Check(text string) error {
	if urlPattern.MatchString(text) {
		return domain.ContentRejectedError{Reason: "URLs and web links are not allowed"}
	}
	if emailPattern.MatchString(text) {
		return domain.ContentRejectedError{Reason: "email addresses are not allowed"}
	}
	if handlePattern.MatchString(text) {
		return domain.ContentRejectedError{Reason: "social media handles are not allowed"}
	}
	if phonePattern.MatchString(text) {
		return domain.ContentRejectedError{Reason: "phone numbers are not allowed"}
	}

	lower := strings.ToLower(text)
	for _, term := range blockedTerms {
		if strings.Contains(lower, term) {
			return domain.ContentRejectedError{Reason: "profanity is not allowed"}
		}
	}

	return nil
}
