// Package tokenizer turns text into token ids for embedding-based models.
//
// Two implementations are provided:
//   - WordVocab: a closed word-level vocabulary with <pad> and <unk>, fully
//     offline and deterministic. Text is NFKC-normalised and case-folded.
//   - TikToken: OpenAI BPE encodings (cl100k_base, p50k_base, r50k_base).
//
// PadBatch lays a set of texts out as a padded id matrix that can be fed to
// an nn.Embedding head, keeping the token strings for attribution tables:
//
//	vocab := tokenizer.BuildWordVocab(corpus, 1)
//	batch, err := tokenizer.PadBatch(vocab, []string{"a great film"}, 16)
//	ids := tensor.MustFromSlice(batch.IDs, tensor.Shape{batch.Rows, batch.Cols}, backend)
package tokenizer
