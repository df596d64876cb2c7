package tablename

import (
	"fmt"
	"testing"

	appErr "github.com/rxtech-lab/table-studio/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("SimplePrefix", func(t *testing.T) {
		name, err := Parse("users_80001_345")
		require.NoError(t, err)
		assert.Equal(t, Name{Prefix: "users", ChainID: 80001, TableID: "345"}, name)
	})

	t.Run("PrefixWithUnderscores", func(t *testing.T) {
		name, err := Parse("my_weird_table_80001_345")
		require.NoError(t, err)
		assert.Equal(t, "my_weird_table", name.Prefix)
		assert.Equal(t, int64(80001), name.ChainID)
		assert.Equal(t, "345", name.TableID)
	})

	t.Run("EmptyPrefix", func(t *testing.T) {
		name, err := Parse("_31337_2")
		require.NoError(t, err)
		assert.Equal(t, "", name.Prefix)
		assert.Equal(t, int64(31337), name.ChainID)
	})

	t.Run("LargeTableID", func(t *testing.T) {
		name, err := Parse("big_1_115792089237316195423570985008687907853269984665640564039457584007913129639935")
		require.NoError(t, err)
		assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", name.TableID)
	})

	t.Run("LeadingZerosAreCanonicalised", func(t *testing.T) {
		name, err := Parse("t_1_007")
		require.NoError(t, err)
		assert.Equal(t, "7", name.TableID)
	})

	t.Run("TrimsWhitespace", func(t *testing.T) {
		name, err := Parse("  users_1_3 ")
		require.NoError(t, err)
		assert.Equal(t, "users_1_3", name.String())
	})
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"users",
		"users_345",
		"users_abc_345",
		"users_80001_abc",
		"users_80001_-1",
		"users_-80001_1",
		"users_80001_",
		"users__1",
		"users_99999_1", // unsupported chain
		"bad-prefix_1_1",
		"1users_1_1",
	}
	for _, input := range cases {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.True(t, appErr.IsCode(err, appErr.CodeInvalidName))
			assert.Equal(t, input, appErr.MetaOf(err)["table_name"])
		})
	}
}

func TestCodecWithCustomLookup(t *testing.T) {
	codec := NewCodec(nil)
	name, err := codec.Parse("users_99999_1")
	require.NoError(t, err)
	assert.Equal(t, int64(99999), name.ChainID)

	only5 := NewCodec(func(chainID int64) bool { return chainID == 5 })
	_, err = only5.Parse("users_1_1")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalidName))
}

func TestFormatRoundTrip(t *testing.T) {
	for _, prefix := range []string{"users", "my_weird_table", "_", "a1"} {
		for _, chainID := range []int64{1, 10, 80001, 11155111} {
			for _, tableID := range []string{"0", "1", "345", "987654321987654321"} {
				full := Format(prefix, chainID, tableID)
				name, err := Parse(full)
				require.NoError(t, err, full)
				assert.Equal(t, prefix, name.Prefix)
				assert.Equal(t, chainID, name.ChainID)
				assert.Equal(t, tableID, name.TableID)
			}
		}
	}
}
