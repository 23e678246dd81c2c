package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Denylists holds the data tables used to reject junk contacts and non-business sites.
// They can be extended at runtime through a YAML file.
type Denylists struct {
	DisposableEmailDomains  []string `yaml:"disposable_email_domains"`
	PlaceholderEmailDomains []string `yaml:"placeholder_email_domains"`
	NonBusinessHosts        []string `yaml:"non_business_hosts"`
	FakePhoneNumbers        []string `yaml:"fake_phone_numbers"`
}

// DefaultDenylists returns the built-in tables.
func DefaultDenylists() Denylists {
	return Denylists{
		DisposableEmailDomains: []string{
			"10minutemail.com", "tempmail.com", "temp-mail.org", "guerrillamail.com", "guerrillamail.net",
			"mailinator.com", "yopmail.com", "throwawaymail.com", "trashmail.com", "getnada.com",
			"sharklasers.com", "dispostable.com", "maildrop.cc", "fakeinbox.com", "mintemail.com",
			"emailondeck.com", "mohmal.com", "tempinbox.com", "spamgourmet.com", "mailnesia.com",
		},
		PlaceholderEmailDomains: []string{
			"example.com", "example.org", "example.net", "domain.com", "email.com", "yourdomain.com",
			"yoursite.com", "yourcompany.com", "company.com", "website.com", "test.com", "sentry.io",
			"sentry.wixpress.com", "wixpress.com", "sentry-next.wixpress.com",
		},
		NonBusinessHosts: []string{
			"facebook.com", "instagram.com", "twitter.com", "x.com", "linkedin.com", "youtube.com",
			"tiktok.com", "pinterest.com", "reddit.com", "tumblr.com", "amazon.com", "ebay.com",
			"etsy.com", "aliexpress.com", "alibaba.com", "wikipedia.org", "yelp.com", "craigslist.org",
			"google.com", "github.com", "medium.com", "quora.com", "tripadvisor.com", "booking.com",
		},
		FakePhoneNumbers: []string{
			"1234567", "12345678", "123456789", "1234567890", "0123456789", "9876543210",
			"5555555", "5551234", "5550000", "1111111111", "0000000000", "1231231234",
		},
	}
}

// LoadDenylists returns the built-in tables extended with entries from path.
// An empty path yields the defaults.
func LoadDenylists(path string) (Denylists, error) {
	lists := DefaultDenylists()
	if strings.TrimSpace(path) == "" {
		return lists, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Denylists{}, eris.Wrapf(err, "read denylist file %s", path)
	}

	var extra Denylists
	if err := yaml.Unmarshal(raw, &extra); err != nil {
		return Denylists{}, eris.Wrapf(err, "parse denylist file %s", path)
	}

	lists.DisposableEmailDomains = mergeLower(lists.DisposableEmailDomains, extra.DisposableEmailDomains)
	lists.PlaceholderEmailDomains = mergeLower(lists.PlaceholderEmailDomains, extra.PlaceholderEmailDomains)
	lists.NonBusinessHosts = mergeLower(lists.NonBusinessHosts, extra.NonBusinessHosts)
	lists.FakePhoneNumbers = mergeLower(lists.FakePhoneNumbers, extra.FakePhoneNumbers)
	return lists, nil
}

func mergeLower(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
