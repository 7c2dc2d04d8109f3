package entity

// RecognitionOutcome is the per-crop result of asking the vision model for
// title and author. Exactly one of Book or Reason is meaningful.
type RecognitionOutcome struct {
	Book   BookInfo
	Reason string
	ok     bool
}

func Recognized(book BookInfo) RecognitionOutcome {
	return RecognitionOutcome{Book: book, ok: true}
}

func Failed(reason string) RecognitionOutcome {
	return RecognitionOutcome{Reason: reason}
}

func (o RecognitionOutcome) OK() bool {
	return o.ok
}
