package seed

import (
	"context"
	"testing"

	"seedling/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values(p Payload) []interface{} {
	var out []interface{}
	for _, item := range p.Items() {
		out = append(out, item.Fields()["v"])
	}
	return out
}

func TestMergeConcatenatesSequences(t *testing.T) {
	base := Seeds{"ASeed": Records(models.Record{"v": 1}, models.Record{"v": 2})}
	extra := Seeds{"ASeed": Records(models.Record{"v": 3})}

	merged := Merge(base, extra)

	assert.Equal(t, []interface{}{1, 2, 3}, values(merged["ASeed"]))
	assert.Equal(t, []interface{}{1, 2}, values(base["ASeed"]), "base must not change")
}

func TestMergeAppendsToSequences(t *testing.T) {
	base := Seeds{
		"ASeed": Records(models.Record{"v": 1}, models.Record{"v": 2}),
		"BSeed": Records(models.Record{"v": 1}),
	}
	producer := Deferred(func(ctx context.Context) (Payload, error) { return Record(models.Record{"v": 9}), nil })
	extra := Seeds{
		"ASeed": Record(models.Record{"v": 3}),
		"BSeed": producer,
	}

	merged := Merge(base, extra)

	assert.Equal(t, KindSequence, merged["ASeed"].Kind())
	assert.Equal(t, []interface{}{1, 2, 3}, values(merged["ASeed"]))
	require.Len(t, merged["BSeed"].Items(), 2)
	assert.Equal(t, KindDeferred, merged["BSeed"].Items()[1].Kind())
	assert.Len(t, base["ASeed"].Items(), 2, "base must not change")
}

func TestMergeOverwritesNonSequences(t *testing.T) {
	base := Seeds{
		"ASeed": Record(models.Record{"v": 1}),
		"BSeed": Record(models.Record{"v": "base"}),
	}
	extra := Seeds{
		"ASeed": Records(models.Record{"v": "replaced"}),
		"CSeed": Record(models.Record{"v": "only extra"}),
	}

	merged := Merge(base, extra)

	assert.Equal(t, []interface{}{"replaced"}, values(merged["ASeed"]))
	assert.Equal(t, "base", merged["BSeed"].Fields()["v"])
	assert.Equal(t, "only extra", merged["CSeed"].Fields()["v"])
}

func TestMergeRecordsFieldByField(t *testing.T) {
	base := Seeds{"SettingSeed": Record(models.Record{
		"name":  "site",
		"list":  []interface{}{"a"},
		"theme": map[string]interface{}{"color": "red", "font": "serif"},
	})}
	extra := Seeds{"SettingSeed": Record(models.Record{
		"name":  "site2",
		"list":  []interface{}{"b"},
		"theme": map[string]interface{}{"color": "blue"},
	})}

	got := Merge(base, extra)["SettingSeed"].Fields()

	assert.Equal(t, "site2", got["name"])
	assert.Equal(t, []interface{}{"a", "b"}, got["list"])
	assert.Equal(t, map[string]interface{}{"color": "blue", "font": "serif"}, got["theme"])
	assert.Equal(t, []interface{}{"a", "c"}, Merge(base, Seeds{"SettingSeed": Record(models.Record{"list": "c"})})["SettingSeed"].Fields()["list"])
	assert.Equal(t, "site", base["SettingSeed"].Fields()["name"])
}

func TestSeedsKeysSorted(t *testing.T) {
	s := Seeds{"BSeed": Records(), "ASeed": Records()}
	assert.Equal(t, []string{"ASeed", "BSeed"}, s.Keys())
}
