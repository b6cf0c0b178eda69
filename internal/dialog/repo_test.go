package dialog

import "testing"

func TestDecodeItem(t *testing.T) {
	it, err := decodeItem(5, string(StateAwaitDeclineReason), []byte(`{"quote_id":12}`))
	if err != nil {
		t.Fatal(err)
	}
	if id, ok := GetInt64(it.Payload, "quote_id"); !ok || id != 12 || it.State != StateAwaitDeclineReason {
		t.Fatalf("item %+v", it)
	}

	for _, raw := range []string{"", "null", "{}"} {
		it, err := decodeItem(5, string(StateIdle), []byte(raw))
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if it.Payload == nil || len(it.Payload) != 0 {
			t.Fatalf("%q: payload %v", raw, it.Payload)
		}
	}

	for _, raw := range []string{`{"quote_id":`, `[1,2]`, `"text"`} {
		if _, err := decodeItem(5, string(StateAwaitDeclineReason), []byte(raw)); err == nil {
			t.Fatalf("%q: corrupt payload accepted", raw)
		}
	}
}
