package domain

// Status is the internal state-machine tag of a project. Display labels
// live in statusLabels and can change without touching transition logic.
type Status string

const (
	StatusDraft                 Status = "draft"
	StatusPendingReview         Status = "pending_review"
	StatusValidatedBC           Status = "validated_bc"
	StatusEstimated             Status = "estimated"
	StatusSentToWorkshop        Status = "sent_to_workshop"
	StatusInProduction          Status = "in_production"
	StatusQualityControl        Status = "quality_control"
	StatusFinished              Status = "finished"
	StatusDeliveryPlanned       Status = "delivery_planned"
	StatusDeliveryDateValidated Status = "delivery_date_validated"
	StatusDelivered             Status = "delivered"
	StatusValidated             Status = "validated"
	StatusReturned              Status = "returned"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{
	StatusDraft,
	StatusPendingReview,
	StatusValidatedBC,
	StatusEstimated,
	StatusSentToWorkshop,
	StatusInProduction,
	StatusQualityControl,
	StatusFinished,
	StatusDeliveryPlanned,
	StatusDeliveryDateValidated,
	StatusDelivered,
	StatusValidated,
	StatusReturned,
}

var statusLabels = map[Status]string{
	StatusDraft:                 "Brouillon",
	StatusPendingReview:         "En attente contrôle BC",
	StatusValidatedBC:           "BC validé",
	StatusEstimated:             "Délai estimé",
	StatusSentToWorkshop:        "Envoyé à l'atelier",
	StatusInProduction:          "En production",
	StatusQualityControl:        "Contrôle qualité",
	StatusFinished:              "Produit terminé",
	StatusDeliveryPlanned:       "Livraison planifiée",
	StatusDeliveryDateValidated: "Date livraison validée",
	StatusDelivered:             "Livré (à valider)",
	StatusValidated:             "Validé (clôturé)",
	StatusReturned:              "Retourné avec observations",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human-readable label, or the raw tag when unknown.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Active reports whether the project still counts for deadline
// notifications.
func (s Status) Active() bool {
	return s != StatusValidated && s != StatusDelivered
}

// ParseStatus accepts either the internal tag or the display label.
func ParseStatus(in string) (Status, bool) {
	if s := Status(in); s.Valid() {
		return s, true
	}
	for s, label := range statusLabels {
		if label == in {
			return s, true
		}
	}
	return "", false
}

// WorkshopLanes are the production-floor columns, in display order.
var WorkshopLanes = []Status{
	StatusReturned,
	StatusSentToWorkshop,
	StatusInProduction,
	StatusQualityControl,
	StatusFinished,
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskBlocked, TaskDone:
		return true
	}
	return false
}

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleCommercial Role = "Commercial"
	RoleAtelier    Role = "Atelier"
	RoleLivraison  Role = "Livraison"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCommercial, RoleAtelier, RoleLivraison:
		return true
	}
	return false
}

type AttachmentKind string

const (
	AttachmentPhoto          AttachmentKind = "photo"
	AttachmentDesignPDF      AttachmentKind = "design_pdf"
	AttachmentDeliveryProof  AttachmentKind = "delivery_proof"
	AttachmentNoteAttachment AttachmentKind = "note_attachment"
	AttachmentOther          AttachmentKind = "other"
)

func (k AttachmentKind) Valid() bool {
	switch k {
	case AttachmentPhoto, AttachmentDesignPDF, AttachmentDeliveryProof, AttachmentNoteAttachment, AttachmentOther:
		return true
	}
	return false
}

type Unit string

const (
	UnitMM Unit = "mm"
	UnitCM Unit = "cm"
	UnitM  Unit = "m"
)

func (u Unit) Valid() bool {
	return u == UnitMM || u == UnitCM || u == UnitM
}
