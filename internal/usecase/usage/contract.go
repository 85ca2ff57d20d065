package usage

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Limit(period string) int64
	Used(period string) int64
}
