package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveID(t *testing.T) {
	chunk := &Chunk{
		Metadata: ChunkMetadata{DocumentID: "doc-123", ChunkIndex: 7},
	}
	assert.Equal(t, "doc-123_7", chunk.DeriveID())
}

func TestSourceOrUnknown(t *testing.T) {
	assert.Equal(t, "handbook", ChunkMetadata{Source: "handbook"}.SourceOrUnknown())
	assert.Equal(t, "Unknown", ChunkMetadata{}.SourceOrUnknown())
}

func TestChunkValidate(t *testing.T) {
	valid := &Chunk{
		Text:     "some text",
		Metadata: ChunkMetadata{DocumentID: "doc-1", ChunkIndex: 0},
	}
	assert.NoError(t, valid.Validate())

	missingDoc := &Chunk{Text: "some text"}
	err := missingDoc.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document_id")

	missingText := &Chunk{Metadata: ChunkMetadata{DocumentID: "doc-1"}}
	assert.Error(t, missingText.Validate())

	negativeIndex := &Chunk{
		Text:     "some text",
		Metadata: ChunkMetadata{DocumentID: "doc-1", ChunkIndex: -1},
	}
	assert.Error(t, negativeIndex.Validate())
}
