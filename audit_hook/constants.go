package audithook

// Action constants for audit events.
const (
	// Token actions
	ActionTokenMinted     = "token.minted"
	ActionTokenBurned     = "token.burned"
	ActionTokenSent       = "token.sent"
	ActionOperatorGranted = "operator.authorized"
	ActionOperatorRevoked = "operator.revoked"

	// Exchange actions
	ActionTokensPurchased = "exchange.purchase"
	ActionTokensSold      = "exchange.sale"

	// Staking actions
	ActionStakeCreated   = "stake.created"
	ActionStakeWithdrawn = "stake.withdrawn"

	// Lottery actions
	ActionTicketPurchased = "lottery.ticket"
	ActionRoundClosed     = "lottery.round_closed"
	ActionLotteryPaused   = "lottery.paused"
	ActionLotteryUnpaused = "lottery.unpaused"
)

// Resource constants for audit events.
const (
	ResourceToken    = "token"
	ResourceOperator = "operator"
	ResourceExchange = "exchange"
	ResourceStake    = "stake"
	ResourceLottery  = "lottery"
)

// Category constants for audit events.
const (
	CategorySupply   = "supply"
	CategoryTransfer = "transfer"
	CategoryAccess   = "access"
	CategoryExchange = "exchange"
	CategoryStaking  = "staking"
	CategoryLottery  = "lottery"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
