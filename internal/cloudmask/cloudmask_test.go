package cloudmask

import (
	"testing"

	"github.com/heatscape/heatscape-cli/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQA_ExactMatchOnly(t *testing.T) {
	qa := raster.NewGrid(4, 1)
	qa.Set(0, 0, 61440)
	qa.Set(1, 0, 61441) // one bit off, not the configured code
	qa.Set(2, 0, 2720)
	qa.SetInvalid(3, 0)

	mask := FromQA(qa, DefaultQACloudValue)

	assert.True(t, mask.IsCloud(0, 0))
	assert.False(t, mask.IsCloud(1, 0))
	assert.False(t, mask.IsCloud(2, 0))
	assert.False(t, mask.IsCloud(3, 0))
	assert.Equal(t, 1, mask.CloudCount())
}

func TestFromBinary_NonZeroMeansCloud(t *testing.T) {
	clouds := raster.NewGrid(3, 1)
	clouds.Set(0, 0, 0)
	clouds.Set(1, 0, 1)
	clouds.Set(2, 0, 255)

	mask := FromBinary(clouds)

	assert.False(t, mask.IsCloud(0, 0))
	assert.True(t, mask.IsCloud(1, 0))
	assert.True(t, mask.IsCloud(2, 0))
	assert.Equal(t, 2, mask.CloudCount())
}

func TestMaskApply(t *testing.T) {
	qa := raster.NewGrid(2, 2)
	qa.Set(0, 0, 61440)
	qa.Set(1, 0, 0)
	qa.Set(0, 1, 61440)
	qa.Set(1, 1, 0)
	mask := FromQA(qa, 61440)

	kelvin := raster.NewGrid(2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			kelvin.Set(x, y, 290)
		}
	}
	kelvin.SetInvalid(0, 1) // already gone before masking

	removed := mask.Apply(kelvin)

	require.Equal(t, 1, removed)
	assert.False(t, kelvin.IsValid(0, 0))
	assert.True(t, kelvin.IsValid(1, 0))
	assert.False(t, kelvin.IsValid(0, 1))
	assert.True(t, kelvin.IsValid(1, 1))
}
