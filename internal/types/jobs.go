package types

// Topics for the billing job queue. Delivery is at-least-once; every handler
// must converge when re-run for the same id.
const (
	TopicRenewConsumables    = "billing.renew_consumables"
	TopicChargeSubscription  = "billing.charge_subscription"
	TopicChargePlanFinancing = "billing.charge_plan_financing"
)

// RenewConsumablesJob asks the renewal worker to evaluate one scheduler.
type RenewConsumablesJob struct {
	SchedulerID string `json:"scheduler_id"`
}

// ChargeSubscriptionJob asks the charge worker to bill one subscription.
type ChargeSubscriptionJob struct {
	SubscriptionID string `json:"subscription_id"`
}

// ChargePlanFinancingJob asks the charge worker to bill one installment.
type ChargePlanFinancingJob struct {
	PlanFinancingID string `json:"plan_financing_id"`
}
