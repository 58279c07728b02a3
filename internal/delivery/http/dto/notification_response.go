package dto

type TriggerNotificationsRequest struct {
	OwnerKind string `json:"ownerKind"`
	OwnerID   string `json:"ownerId"`
}

type SweepRequest struct {
	Limit int `json:"limit"`
}
