package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is stored under a key while its first request runs.
	IdempotencyPending = "processing"
)

// Labels the host displays on generated entries.
const (
	changeDateMemoFormat  = "インポートしたデータの日付変更（元:%s)"
	splitContentFormat    = "%s（%d回に分割）"
	selfPayContentFormat  = "%s（自己負担）"
	otherPayContentFormat = "%s（相手負担）"
	shareMemoFormat       = "自己負担額変更（元:%d)"
)
