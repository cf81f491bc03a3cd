package xmlutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChild_AbsentStepsYieldEmptyNode(t *testing.T) {
	node := Node{"A": Node{"B": Node{"C": "leaf"}}}

	assert.Equal(t, "leaf", Str(Child(node, "A", "B"), "C"))
	assert.Empty(t, Child(node, "A", "missing", "C"))
	assert.Empty(t, Child(node, "A", "B", "C"), "scalar step is not a mapping")
}

func TestRequireStr(t *testing.T) {
	node := Node{"Id": "X-1", "Empty": ""}

	v, err := RequireStr(node, "Id", "GrpHdr.MsgId")
	require.NoError(t, err)
	assert.Equal(t, "X-1", v)

	_, err = RequireStr(node, "Empty", "GrpHdr.MsgId")
	assert.Error(t, err)
	_, err = RequireStr(node, "Missing", "GrpHdr.MsgId")
	assert.Error(t, err)
}

func TestStrOrList(t *testing.T) {
	assert.Nil(t, StrOrList(nil))
	assert.Nil(t, StrOrList(""))
	assert.Equal(t, []string{"one"}, StrOrList("one"))
	assert.Equal(t, []string{"one", "two"}, StrOrList([]interface{}{"one", "two"}))
}

func TestAmount(t *testing.T) {
	node := Node{"Amt": Node{"@": "123.456", "@Ccy": "EUR"}}

	d, ccy, ok, err := Amount(node, "Amt", "Ntry.Amt", true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "EUR", ccy)
	assert.Equal(t, "123.46", d.StringFixed(2), "amounts round to cents")

	// Absent node: an error only when required.
	_, _, ok, err = Amount(Node{}, "Amt", "Ntry.Amt", false)
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, _, err = Amount(Node{}, "Amt", "Ntry.Amt", true)
	assert.Error(t, err)

	// Present but malformed.
	bad := Node{"Amt": Node{"@": "lots", "@Ccy": "EUR"}}
	_, _, _, err = Amount(bad, "Amt", "Ntry.Amt", false)
	assert.Error(t, err)
}

func TestDateTime_Layouts(t *testing.T) {
	for _, s := range []string{
		"2018-02-07T12:28:19+02:00",
		"2018-02-07T12:28:19.123456",
		"2018-02-07T12:28:19",
		"2018-02-07 12:28:19",
	} {
		ts, err := DateTime(Node{"CreDtTm": s}, "CreDtTm", "GrpHdr.CreDtTm")
		require.NoError(t, err, s)
		assert.Equal(t, 12, ts.Hour(), s)
	}

	_, err := DateTime(Node{"CreDtTm": "today"}, "CreDtTm", "GrpHdr.CreDtTm")
	assert.Error(t, err)
}

func TestDate_ToleratesTrailingTime(t *testing.T) {
	d, err := Date(Node{"Dt": "2018-02-07T00:00:00"}, "Dt", "BookgDt.Dt")
	require.NoError(t, err)
	assert.Equal(t, 7, d.Day())

	_, err = Date(Node{"Dt": "07.02.2018"}, "Dt", "BookgDt.Dt")
	assert.Error(t, err)
}
