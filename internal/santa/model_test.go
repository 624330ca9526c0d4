package santa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusComplete, ParseStatus("complete"))
	assert.Equal(t, StatusComplete, ParseStatus(" COMPLETE "))
	assert.Equal(t, StatusPending, ParseStatus("pending"))
	assert.Equal(t, StatusPending, ParseStatus("setvkid"))
	assert.Equal(t, StatusPending, ParseStatus(""))
}

func TestPreferencesOrder(t *testing.T) {
	values := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12"}
	p, ok := PreferencesFromValues(values)
	assert.True(t, ok)
	assert.Equal(t, "1", p.Name)
	assert.Equal(t, "3", p.PostIndex)
	assert.Equal(t, "12", p.RabbitGift)
	assert.Equal(t, values, p.Values())

	_, ok = PreferencesFromValues(values[:11])
	assert.False(t, ok)
}

func TestKeyboardRows(t *testing.T) {
	assert.Nil(t, KeyboardNone.Rows())
	assert.Equal(t, [][]string{{ButtonBack}}, KeyboardBack.Rows())
	assert.Len(t, KeyboardMain.Rows(), 2)
	assert.Equal(t, "main", KeyboardMain.String())
}
