package models

// Withdrawal reason codes and their operator-facing labels.
const (
	WithdrawReasonIce   = "ice"
	WithdrawReasonFuel  = "fuel"
	WithdrawReasonOther = "other"
)

// WithdrawReasonLabels maps reason codes to the Thai text shown to approvers
// and stored on the request.
var WithdrawReasonLabels = map[string]string{
	WithdrawReasonIce:  "ซื้อน้ำแข็ง",
	WithdrawReasonFuel: "เติมน้ำมัน",
}

// Deposit reason codes.
const (
	DepositReasonChange     = "change"
	DepositReasonDailySales = "daily_sales"
	DepositReasonOther      = "other_deposit"
)

var DepositReasonLabels = map[string]string{
	DepositReasonChange:     "เงินทอน",
	DepositReasonDailySales: "ยอดขายประจำวัน",
	DepositReasonOther:      "ฝากอื่นๆ",
}

// The two branches with cash machines.
const (
	BranchColdStorage = "cold_storage"
	BranchNoniko      = "noniko"
)

// BranchLabels maps branch ids to the Thai names used in chat summaries.
var BranchLabels = map[string]string{
	BranchColdStorage: "คลังห้องเย็น",
	BranchNoniko:      "โนนิโกะ",
}

// Actor tags recorded in status history entries.
const (
	ActorApproverUI = "approver_ui"
	ActorSystem     = "system"
	ActorBackfill   = "backfill_script"
)
