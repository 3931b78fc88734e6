package worker

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/logger"
	"github.com/academypay/academypay/internal/pubsub"
	"github.com/academypay/academypay/internal/pubsub/router"
	"github.com/academypay/academypay/internal/service"
	"github.com/academypay/academypay/internal/types"
)

// RegisterHandlers binds every billing job topic to its worker. Jobs carry
// only entity ids; each handler re-reads current state so stale messages
// settle as business aborts instead of acting on old data.
func RegisterHandlers(
	r *router.Router,
	subscriber pubsub.Subscriber,
	renewalService service.RenewalService,
	chargeService service.ChargeService,
	log *logger.Logger,
) {
	r.AddNoPublishHandler(
		"renew_consumables",
		types.TopicRenewConsumables,
		subscriber,
		func(msg *message.Message) error {
			var job types.RenewConsumablesJob
			if err := decode(msg, &job); err != nil {
				return err
			}
			return renewalService.RenewConsumables(msg.Context(), job.SchedulerID)
		},
	)

	r.AddNoPublishHandler(
		"charge_subscription",
		types.TopicChargeSubscription,
		subscriber,
		func(msg *message.Message) error {
			var job types.ChargeSubscriptionJob
			if err := decode(msg, &job); err != nil {
				return err
			}
			return chargeService.ChargeSubscription(msg.Context(), job.SubscriptionID)
		},
	)

	r.AddNoPublishHandler(
		"charge_plan_financing",
		types.TopicChargePlanFinancing,
		subscriber,
		func(msg *message.Message) error {
			var job types.ChargePlanFinancingJob
			if err := decode(msg, &job); err != nil {
				return err
			}
			return chargeService.ChargePlanFinancing(msg.Context(), job.PlanFinancingID)
		},
	)

	log.Infow("registered billing job handlers",
		"topics", []string{
			types.TopicRenewConsumables,
			types.TopicChargeSubscription,
			types.TopicChargePlanFinancing,
		},
	)
}

// decode unmarshals a job payload. A malformed payload is a business abort:
// retrying it can never succeed, so the router acks it away.
func decode(msg *message.Message, dest any) error {
	if err := json.Unmarshal(msg.Payload, dest); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed job payload").
			WithReportableDetails(map[string]any{"message_uuid": msg.UUID}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
