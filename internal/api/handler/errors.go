package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/oaif-format/oaif/internal/domain/entity"
	"github.com/oaif-format/oaif/internal/domain/ledger"
	"github.com/oaif-format/oaif/internal/domain/lots"
	"github.com/oaif-format/oaif/internal/domain/types"
)

// respondDomainError maps service errors onto HTTP responses: missing records
// become 404s, rule violations become 422s with a stable error code, and
// anything unrecognized stays a 500.
func respondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		headerNotFound   ledger.ErrHeaderNotFound
		accountNotFound  entity.ErrAccountNotFound
		partyNotFound    entity.ErrPartyNotFound
		itemNotFound     entity.ErrItemNotFound
		securityNotFound entity.ErrSecurityNotFound
		lotNotFound      lots.ErrLotNotFound
		unbalanced       ledger.UnbalancedTransactionError
		missingRef       ledger.MissingReferenceError
		duplicateLine    ledger.DuplicateLineNumberError
		invalidParty     ledger.InvalidPartyError
		invalidState     ledger.InvalidTransitionError
		overapplied      ledger.OverappliedLinkError
		insufficient     lots.InsufficientSharesError
		cycle            entity.CycleDetectedError
		duplicateSym     entity.ErrDuplicateSymbol
		unknownType      types.UnknownTypeError
		duplicateName    types.DuplicateNameError
		badNamespace     types.InvalidNamespaceError
	)

	switch {
	case errors.As(err, &headerNotFound),
		errors.As(err, &accountNotFound),
		errors.As(err, &partyNotFound),
		errors.As(err, &itemNotFound),
		errors.As(err, &securityNotFound),
		errors.As(err, &lotNotFound):
		RespondNotFound(c, err.Error())
	case errors.As(err, &unbalanced):
		RespondUnprocessable(c, "UNBALANCED_TRANSACTION", err.Error())
	case errors.As(err, &missingRef):
		RespondUnprocessable(c, "MISSING_REFERENCE", err.Error())
	case errors.As(err, &duplicateLine):
		RespondUnprocessable(c, "DUPLICATE_LINE_NUMBER", err.Error())
	case errors.As(err, &invalidParty):
		RespondUnprocessable(c, "INVALID_PARTY", err.Error())
	case errors.As(err, &invalidState):
		RespondConflict(c, err.Error())
	case errors.As(err, &overapplied):
		RespondUnprocessable(c, "OVERAPPLIED_LINK", err.Error())
	case errors.As(err, &insufficient):
		RespondUnprocessable(c, "INSUFFICIENT_SHARES", err.Error())
	case errors.As(err, &cycle):
		RespondUnprocessable(c, "HIERARCHY_CYCLE", err.Error())
	case errors.As(err, &unknownType):
		RespondUnprocessable(c, "UNKNOWN_TYPE", err.Error())
	case errors.As(err, &duplicateSym), errors.As(err, &duplicateName):
		RespondConflict(c, err.Error())
	case errors.As(err, &badNamespace):
		RespondBadRequest(c, err.Error())
	default:
		logger.Error("Unhandled service error", "error", err)
		RespondInternalError(c)
	}
}
