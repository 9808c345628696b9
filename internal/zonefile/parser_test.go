package zonefile

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleZone = `
$TTL 3600
$ORIGIN example.com.
example.com.  IN SOA ns1.example.com. admin.example.com. 2024010101 7200 3600 1209600 3600
@             IN NS  ns1.example.com.
@             IN NS  ns2.example.com.
@             300 IN A 192.0.2.1
www           A      192.0.2.2 ; web server
mail          IN MX  10 mailhost.example.com.
ftp           CNAME  www.example.com.
@             TXT    "v=spf1 include:_spf.example.com ~all"
v6            IN AAAA 2001:db8::1
_sip._tcp     SRV    10 60 5060 sip.example.com.
`

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestParse_SampleZone(t *testing.T) {
	res := Parse(sampleZone)

	require.Len(t, res.Records, 10)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, "example.com", res.Apex)

	want := []struct {
		name, typ, value, ttl string
	}{
		{"example.com", "SOA", "ns1.example.com. admin.example.com. 2024010101 7200 3600 1209600 3600", "Default"},
		{"example.com", "NS", "ns1.example.com.", "Default"},
		{"example.com", "NS", "ns2.example.com.", "Default"},
		{"example.com", "A", "192.0.2.1", "300"},
		{"www", "A", "192.0.2.2", "Default"},
		{"mail", "MX", "10 mailhost.example.com.", "Default"},
		{"ftp", "CNAME", "www.example.com.", "Default"},
		{"example.com", "TXT", "v=spf1 include:_spf.example.com ~all", "Default"},
		{"v6", "AAAA", "2001:db8::1", "Default"},
		{"_sip._tcp", "SRV", "10 60 5060 sip.example.com.", "Default"},
	}

	for i, w := range want {
		rec := res.Records[i]
		assert.Equal(t, w.name, rec.Name, "record %d name", i)
		assert.Equal(t, w.typ, rec.Type, "record %d type", i)
		assert.Equal(t, w.value, rec.Value, "record %d value", i)
		assert.Equal(t, w.ttl, rec.TTL.String(), "record %d ttl", i)
		assert.True(t, rec.IsValid, "record %d valid", i)
		assert.Empty(t, rec.Error, "record %d error", i)
	}
}

func TestParse_TTLDetection(t *testing.T) {
	res := Parse("www 300 A 1.2.3.4\nwww A 1.2.3.4\n")
	require.Len(t, res.Records, 2)

	assert.Equal(t, "300", res.Records[0].TTL.String())
	assert.Equal(t, "A", res.Records[0].Type)
	assert.Equal(t, "1.2.3.4", res.Records[0].Value)

	assert.True(t, res.Records[1].TTL.IsDefault())
	assert.Equal(t, "Default", res.Records[1].TTL.String())
}

func TestParse_ClassTag(t *testing.T) {
	tests := []struct {
		name string
		line string
		ttl  string
	}{
		{"class after ttl", "www 300 IN A 1.2.3.4", "300"},
		{"class before ttl", "www IN 300 A 1.2.3.4", "300"},
		{"class without ttl", "www IN A 1.2.3.4", "Default"},
		{"lowercase class", "www in a 1.2.3.4", "Default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.line)
			require.Len(t, res.Records, 1)
			rec := res.Records[0]
			assert.Equal(t, "A", rec.Type)
			assert.Equal(t, "1.2.3.4", rec.Value)
			assert.Equal(t, tt.ttl, rec.TTL.String())
		})
	}
}

func TestParse_ApexSubstitution(t *testing.T) {
	res := Parse("example.com. 3600 IN SOA ns1.example.com. admin.example.com. 1 2 3 4 5\n@ A 192.0.2.1\n")
	require.Len(t, res.Records, 2)
	assert.Equal(t, "example.com", res.Records[1].Name)
}

func TestParse_ApexBeforeSOA(t *testing.T) {
	res := Parse("@ A 192.0.2.1\nexample.com. SOA ns1 admin 1 2 3 4 5\n")
	require.Len(t, res.Records, 2)

	assert.Equal(t, "", res.Records[0].Name)
	assert.False(t, res.Records[0].IsValid)
	assert.Contains(t, res.Records[0].Error, "name")
}

func TestParse_SOAOwnedByAt(t *testing.T) {
	res := Parse("@ IN SOA ns1.example.com. admin.example.com. 1 2 3 4 5\n")
	assert.Equal(t, "", res.Apex)
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].IsValid)
}

func TestParse_SkippedLines(t *testing.T) {
	text := `
; only a comment
$TTL 300
$ORIGIN example.com.
www A
short
   ; indented comment
`
	res := Parse(text)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Dropped)
}

func TestParse_TruncatedLines(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		isValid bool
		missing string
	}{
		{"A without address", "www 300 A", false, "value"},
		{"MX without exchange", "mail MX 10", true, ""},
		{"CNAME without target", "alias 60 CNAME", false, "value"},
		{"full A", "www 300 A 1.2.3.4", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.line)
			require.Len(t, res.Records, 1)
			rec := res.Records[0]
			assert.Equal(t, tt.isValid, rec.IsValid)
			assert.Equal(t, rec.Name != "" && rec.Type != "" && rec.Value != "", rec.IsValid)
			if tt.isValid {
				assert.Empty(t, rec.Error)
			} else {
				assert.Contains(t, rec.Error, tt.missing)
			}
		})
	}
}

func TestParse_MX(t *testing.T) {
	res := Parse("mail IN MX 10 mailhost.example.com.")
	require.Len(t, res.Records, 1)
	assert.Equal(t, "10 mailhost.example.com.", res.Records[0].Value)
}

func TestParse_TXTQuotes(t *testing.T) {
	res := Parse(`txt TXT "hello world"` + "\n" + `bare TXT hello world`)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "hello world", res.Records[0].Value)
	assert.Equal(t, "hello world", res.Records[1].Value)
}

func TestParse_TrailingDotStrippedFromOwner(t *testing.T) {
	res := Parse("www.example.com. A 1.2.3.4")
	require.Len(t, res.Records, 1)
	assert.Equal(t, "www.example.com", res.Records[0].Name)
}

func TestParse_TTLOutOfRangeDropsLine(t *testing.T) {
	var logged []string
	log := funcr.New(func(prefix, args string) {
		logged = append(logged, args)
	}, funcr.Options{})

	res := Parse("www 99999999999 A 1.2.3.4\nok A 1.2.3.4\n", WithLogger(log))

	require.Len(t, res.Records, 1)
	assert.Equal(t, "ok", res.Records[0].Name)

	require.Len(t, res.Dropped, 1)
	assert.Equal(t, 1, res.Dropped[0].Line)
	assert.True(t, errors.Is(&res.Dropped[0], ErrInvalidTTL))

	require.NotEmpty(t, logged)
	assert.Contains(t, logged[0], "parse_error")
}

func TestParse_Deterministic(t *testing.T) {
	first := Parse(sampleZone)
	second := Parse(sampleZone)

	require.Len(t, second.Records, len(first.Records))
	for i := range first.Records {
		a, b := first.Records[i], second.Records[i]
		assert.Equal(t, a.Name, b.Name)
		assert.Equal(t, a.Type, b.Type)
		assert.Equal(t, a.Value, b.Value)
		assert.Equal(t, a.TTL, b.TTL)
		assert.Equal(t, a.IsValid, b.IsValid)
	}
}

func TestParse_UniqueIDs(t *testing.T) {
	res := Parse(sampleZone)
	seen := make(map[string]bool)
	for _, rec := range res.Records {
		assert.NotEmpty(t, rec.ID)
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestParse_IDGenerator(t *testing.T) {
	res := Parse("a A 1.1.1.1\nb A 2.2.2.2\n", WithIDGenerator(seqIDs()))
	require.Len(t, res.Records, 2)
	assert.Equal(t, "id-1", res.Records[0].ID)
	assert.Equal(t, "id-2", res.Records[1].ID)
}

func TestParse_WindowsLineEndings(t *testing.T) {
	res := Parse("www A 1.2.3.4\r\nmail MX 10 mx.example.com.\r\n")
	require.Len(t, res.Records, 2)
	assert.Equal(t, "1.2.3.4", res.Records[0].Value)
	assert.Equal(t, "10 mx.example.com.", res.Records[1].Value)
}
