package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeAddr(t *testing.T) {
	cases := map[string]string{
		"":                                   "unknown",
		"not-an-ip":                          "invalid",
		"192.168.1.47":                       "192.168.1.0",
		"192.168.1.47:52311":                 "192.168.1.0",
		"[2001:db8:85a3::8a2e:370:7334]:443": "2001:db8:85a3::",
		"2001:db8:85a3::8a2e:370:7334":       "2001:db8:85a3::",
		"::ffff:10.1.2.3":                    "10.1.2.0",
	}
	for in, want := range cases {
		assert.Equal(t, want, AnonymizeAddr(in), in)
	}
}
