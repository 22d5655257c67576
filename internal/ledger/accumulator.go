package ledger

// Accumulator folds per-attachment results of one message into the message outcome.
//
// Any accepted attachment makes the message processed, linked to the first invoice.
// Without an acceptance, any error makes it errored; otherwise it is rejected.
type Accumulator struct {
	invoiceIds []string
	rejections []string
	failures   []string
	filenames  []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Seen(filename string) {
	a.filenames = append(a.filenames, filename)
}

func (a *Accumulator) Accept(invoiceId string) {
	a.invoiceIds = append(a.invoiceIds, invoiceId)
}

func (a *Accumulator) Reject(reason string) {
	a.rejections = append(a.rejections, reason)
}

func (a *Accumulator) Fail(reason string) {
	a.failures = append(a.failures, reason)
}

func (a *Accumulator) InvoiceIds() []string {
	return a.invoiceIds
}

func (a *Accumulator) Filenames() []string {
	return a.filenames
}

func (a *Accumulator) Outcome() Outcome {
	switch {
	case len(a.invoiceIds) > 0:
		return ProcessedOutcome(a.invoiceIds[0])
	case len(a.failures) > 0:
		return ErroredOutcome(joinReasons(a.failures))
	case len(a.rejections) > 0:
		return RejectedOutcome(joinReasons(a.rejections))
	default:
		return RejectedOutcome(ReasonNoEligibleAttachments)
	}
}
