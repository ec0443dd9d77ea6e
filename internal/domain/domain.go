package domain

type Project struct {
	ID                string          `json:"id"`
	ClientName        string          `json:"client_name"`
	OrderNumber       string          `json:"order_number"`
	Phone             string          `json:"phone,omitempty"`
	Address           string          `json:"address,omitempty"`
	GPS               *GPS            `json:"gps,omitempty"`
	Type              string          `json:"type"`
	ResponsibleID     string          `json:"responsible_id"`
	Status            Status          `json:"status" enum:"draft,pending_review,validated_bc,estimated,sent_to_workshop,in_production,quality_control,finished,delivery_planned,delivery_date_validated,delivered,validated,returned"`
	CreatedAt         string          `json:"created_at" format:"date"`
	EstimatedDeadline string          `json:"estimated_deadline,omitempty" format:"date"`
	Notes             string          `json:"notes,omitempty"`
	Measurements      []Measurement   `json:"measurements"`
	Attachments       []Attachment    `json:"attachments"`
	Tasks             []Task          `json:"tasks"`
	History           []WorkflowEvent `json:"history"`
	Delivery          *Delivery       `json:"delivery,omitempty"`
}

type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Measurement struct {
	ID     string   `json:"id"`
	Room   string   `json:"room"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
	Depth  *float64 `json:"depth,omitempty"`
	Unit   Unit     `json:"unit" enum:"mm,cm,m"`
}

type Attachment struct {
	ID          string         `json:"id"`
	Kind        AttachmentKind `json:"kind" enum:"photo,design_pdf,delivery_proof,note_attachment,other"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"content_type,omitempty"`
	Locator     string         `json:"locator"`
	UploadedBy  string         `json:"uploaded_by"`
	Date        string         `json:"date" format:"date"`
}

type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Status   TaskStatus `json:"status" enum:"todo,in_progress,blocked,done"`
	Assignee string     `json:"assignee,omitempty"`
	Progress int        `json:"progress" minimum:"0" maximum:"100"`
}

// WorkflowEvent is one entry of a project's status history. Events are
// never edited once appended.
type WorkflowEvent struct {
	ID      string `json:"id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	Date    string `json:"date"`
	User    string `json:"user"`
	Comment string `json:"comment,omitempty"`
}

type Delivery struct {
	ProposedDate   string `json:"proposed_date,omitempty" format:"date"`
	ValidatedDate  string `json:"validated_date,omitempty" format:"date"`
	ValidatedBy    string `json:"validated_by,omitempty"`
	ClientNotified bool   `json:"client_notified,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role" enum:"Admin,Commercial,Atelier,Livraison"`
}

type StockItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	MinThreshold float64 `json:"min_threshold"`
	Location     string  `json:"location,omitempty"`
}

// Low reports whether the item is at or below its reorder threshold.
func (s StockItem) Low() bool {
	return s.Quantity <= s.MinThreshold
}

type PurchaseOrderItem struct {
	ItemName string  `json:"item_name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type PurchaseOrder struct {
	ID        string              `json:"id"`
	Supplier  string              `json:"supplier"`
	Status    string              `json:"status" enum:"pending,ordered,received,cancelled"`
	Items     []PurchaseOrderItem `json:"items"`
	ProjectID string              `json:"project_id,omitempty"`
	CreatedAt string              `json:"created_at" format:"date"`
}

// Event is a journal row describing a persisted mutation.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
