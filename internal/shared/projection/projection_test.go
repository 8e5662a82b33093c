package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_NormalisesTimestampsToUTC(t *testing.T) {
	zone := time.FixedZone("CEST", 2*60*60)
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, zone)

	p := New("image.png", created, created.Add(time.Minute))

	assert.Equal(t, "image.png", p.Entity)
	assert.Equal(t, time.UTC, p.Metadata.CreatedAt.Location())
	assert.True(t, created.Equal(p.Metadata.CreatedAt))
	assert.Equal(t, 10, p.Metadata.UpdatedAt.Hour())
}
