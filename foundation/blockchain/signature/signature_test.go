package signature_test

import (
	"encoding/json"
	"testing"

	"github.com/ardanlabs/autochain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Canonical(t *testing.T) {
	type table struct {
		name  string
		value any
		exp   string
	}

	tt := []table{
		{
			name: "genesis",
			value: map[string]any{
				"index":         1,
				"timestamp":     json.Number("1700000000.5"),
				"transactions":  []any{},
				"proof":         100,
				"previous_hash": "1",
			},
			exp: `{"index": 1, "previous_hash": "1", "proof": 100, "timestamp": 1700000000.5, "transactions": []}`,
		},
		{
			name: "transaction",
			value: struct {
				Owner    string `json:"owner"`
				Receiver string `json:"receiver"`
				Amount   int    `json:"amount"`
				ItemID   string `json:"item_id"`
			}{"A", "B", 10, "X1"},
			exp: `{"amount": 10, "item_id": "X1", "owner": "A", "receiver": "B"}`,
		},
		{
			name:  "escapes",
			value: map[string]string{"s": "é\"\\\n<>&\x01~\x7f"},
			exp:   `{"s": "\u00e9\"\\\n<>&\u0001~\u007f"}`,
		},
		{
			name:  "astral",
			value: []any{"😀", true, nil},
			exp:   `["\ud83d\ude00", true, null]`,
		},
	}

	t.Log("Given the need to encode values the same way on every node.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
				{
					data, err := signature.Canonical(tst.value)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to encode the value: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to encode the value.", success, testID)

					if string(data) != tst.exp {
						t.Logf("\t\tTest %d:\tgot: %s", testID, data)
						t.Logf("\t\tTest %d:\texp: %s", testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get the canonical encoding.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the canonical encoding.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Hash(t *testing.T) {
	t.Log("Given the need to fingerprint a value.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the same content is built in a different order.", testID)
		{
			v1 := map[string]any{
				"index":         1,
				"timestamp":     json.Number("1700000000.5"),
				"transactions":  []any{},
				"proof":         100,
				"previous_hash": "1",
			}

			v2 := struct {
				PreviousHash string      `json:"previous_hash"`
				Proof        int         `json:"proof"`
				Transactions []any       `json:"transactions"`
				Timestamp    json.Number `json:"timestamp"`
				Index        int         `json:"index"`
			}{"1", 100, []any{}, "1700000000.5", 1}

			const exp = "7dd0b05c7a6aafba30a3d6c7102d235385a934972e4c066bcea9f6adcbae98f2"

			if got := signature.Hash(v1); got != exp {
				t.Logf("\t\tTest %d:\tgot: %s", testID, got)
				t.Logf("\t\tTest %d:\texp: %s", testID, exp)
				t.Fatalf("\t%s\tTest %d:\tShould get the reference hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the reference hash.", success, testID)

			if signature.Hash(v1) != signature.Hash(v2) {
				t.Fatalf("\t%s\tTest %d:\tShould get the same hash for both orders.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same hash for both orders.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the value can't be encoded.", testID)
		{
			if got := signature.Hash(make(chan int)); got != signature.ZeroHash {
				t.Fatalf("\t%s\tTest %d:\tShould get the zero hash, got %s.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould get the zero hash.", success, testID)
		}
	}
}

func Test_FormatFloat(t *testing.T) {
	tt := []struct {
		value float64
		exp   string
	}{
		{1700000000.0, "1700000000.0"},
		{1700000000.5, "1700000000.5"},
		{1700000010.25, "1700000010.25"},
		{123.456, "123.456"},
		{0, "0.0"},
		{1e16, "1e+16"},
		{0.00001, "1e-05"},
		{0.0001, "0.0001"},
	}

	t.Log("Given the need to render timestamps the same way on every node.")
	{
		for testID, tst := range tt {
			if got := signature.FormatFloat(tst.value); got != tst.exp {
				t.Fatalf("\t%s\tTest %d:\tShould render %v as %s, got %s.", failed, testID, tst.value, tst.exp, got)
			}
			t.Logf("\t%s\tTest %d:\tShould render %v as %s.", success, testID, tst.value, tst.exp)
		}
	}
}
