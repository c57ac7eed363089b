package correlation

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mailweave/mailweave/pkg/model"
)

// GetGroup hydrates one correlation group: its records, the member emails
// that still exist, and a freshly computed analysis. Returns nil for an
// unknown group ID.
func (u *UseCase) GetGroup(ctx context.Context, groupID model.GroupID) (*model.CorrelationGroup, error) {
	recs, err := u.repo.ListCorrelationsByGroup(ctx, groupID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list correlation records", goerr.V("group_id", groupID))
	}
	if len(recs) == 0 {
		return nil, nil
	}

	group := &model.CorrelationGroup{
		ID:      groupID,
		Type:    recs[0].Type,
		Subject: recs[0].Subject,
		Records: recs,
	}

	emails, err := u.hydrateEmails(ctx, group.MemberIDs())
	if err != nil {
		return nil, err
	}
	group.Emails = emails

	analysis, err := u.Analyze(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Analysis = analysis

	return group, nil
}

// ListGroups enumerates the distinct groups touching an owner's emails,
// hydrated with members and analyses in first-seen record order.
func (u *UseCase) ListGroups(ctx context.Context, ownerID model.OwnerID) ([]*model.CorrelationGroup, error) {
	recs, err := u.repo.ListCorrelationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list correlation records", goerr.V("owner_id", ownerID))
	}

	seen := make(map[model.GroupID]bool)
	var groups []*model.CorrelationGroup
	for _, rec := range recs {
		if seen[rec.GroupID] {
			continue
		}
		seen[rec.GroupID] = true

		group, err := u.GetGroup(ctx, rec.GroupID)
		if err != nil {
			return nil, err
		}
		if group != nil {
			groups = append(groups, group)
		}
	}

	return groups, nil
}
