package ai

// AnalysisBatchSize is the number of job postings analyzed per model call.
// Larger batches risk truncated responses on long postings.
const AnalysisBatchSize = 5

// CreateBatches splits items into consecutive batches of at most size.
// A size of zero or less falls back to AnalysisBatchSize.
func CreateBatches[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = AnalysisBatchSize
	}
	if len(items) == 0 {
		return nil
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
