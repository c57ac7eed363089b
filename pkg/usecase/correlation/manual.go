package correlation

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
)

// CreateManual records an operator-asserted group over the given emails.
// At least two email IDs are required and every email must exist; on any
// validation failure nothing is persisted. Manual records carry full
// confidence.
func (u *UseCase) CreateManual(
	ctx context.Context,
	ownerID model.OwnerID,
	emailIDs []model.EmailID,
	corrType model.CorrelationType,
	subject string,
) (model.GroupID, error) {
	if len(emailIDs) < 2 {
		return "", goerr.Wrap(model.ErrValidation, "a manual correlation requires at least 2 emails",
			goerr.V("count", len(emailIDs)))
	}
	if err := corrType.Validate(); err != nil {
		return "", err
	}

	emails := make([]*model.Email, 0, len(emailIDs))
	for _, id := range emailIDs {
		email, err := u.repo.GetEmail(ctx, id)
		if err != nil {
			return "", goerr.Wrap(err, "failed to resolve email for manual correlation", goerr.V("email_id", id))
		}
		if email.OwnerID != ownerID {
			return "", goerr.Wrap(model.ErrValidation, "email belongs to another owner", goerr.V("email_id", id))
		}
		emails = append(emails, email)
	}

	groupID := model.NewGroupID()
	now := time.Now()
	for _, email := range emails {
		rec := &model.CorrelationRecord{
			GroupID:    groupID,
			EmailID:    email.ID,
			OwnerID:    ownerID,
			Type:       corrType,
			Subject:    subject,
			Confidence: 1.0,
			CreatedAt:  now,
		}
		if err := u.repo.AppendCorrelation(ctx, rec); err != nil {
			return "", goerr.Wrap(err, "failed to append manual correlation record", goerr.V("group_id", groupID))
		}
	}

	return groupID, nil
}
