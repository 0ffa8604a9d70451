package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/kinmap/pkg/codec"
)

const bobUUID = "6f1c2a9e-3b1d-4c8e-9a57-2d0f4b8e1c33"

func TestParseReference(t *testing.T) {
	tests := []struct {
		input string
		want  codec.Reference
		ok    bool
	}{
		{"urn:uuid:" + bobUUID, codec.UUIDRef(bobUUID), true},
		{"URN:UUID:6F1C2A9E-3B1D-4C8E-9A57-2D0F4B8E1C33", codec.UUIDRef(bobUUID), true},
		{"urn:uuid:not-a-uuid", codec.UIDRef("not-a-uuid"), true},
		{"uid:bob-doe", codec.UIDRef("bob-doe"), true},
		{"name:Bob Doe", codec.NameRef("Bob Doe"), true},
		{bobUUID, codec.UUIDRef(bobUUID), true},
		{"Bob Doe", codec.NameRef("Bob Doe"), true},
		{"  ", codec.Reference{}, false},
		{"uid:", codec.Reference{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := codec.ParseReference(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReferenceString(t *testing.T) {
	for _, ref := range []codec.Reference{
		codec.UUIDRef(bobUUID),
		codec.UIDRef("people/bob"),
		codec.NameRef("Bob Doe"),
	} {
		parsed, ok := codec.ParseReference(ref.String())
		assert.True(t, ok)
		assert.Equal(t, ref, parsed)
	}
	assert.Equal(t, "name:Bob Doe", codec.NameRef("Bob Doe").String())
}

func TestReferenceFor(t *testing.T) {
	assert.Equal(t, codec.UUIDRef(bobUUID), codec.ReferenceFor(bobUUID, "Bob Doe"))
	assert.Equal(t, codec.UIDRef("people/bob"), codec.ReferenceFor("people/bob", "Bob Doe"))
	assert.Equal(t, codec.NameRef("Bob Doe"), codec.ReferenceFor("Bob Doe", "Bob Doe"))
	assert.Equal(t, codec.NameRef("Bob Doe"), codec.ReferenceFor("", "Bob Doe"))
}
