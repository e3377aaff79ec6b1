package dtos

type TemplateCreationRequest struct {
	Name     string `json:"name" binding:"required,max=120"`
	Category string `json:"category" binding:"required,oneof=INTERVIEW_INVITE REJECTION OFFER FOLLOW_UP"`
	Subject  string `json:"subject" binding:"required,max=200"`
	Body     string `json:"body" binding:"required"`
}

type TemplateListQuery struct {
	ListQuery
	Category string `form:"category" binding:"omitempty,oneof=INTERVIEW_INVITE REJECTION OFFER FOLLOW_UP"`
}

type TemplateDraftRequest struct {
	Category    string `json:"category" binding:"required,oneof=INTERVIEW_INVITE REJECTION OFFER FOLLOW_UP"`
	CompanyName string `json:"company_name" binding:"required"`
	RoleTitle   string `json:"role_title" binding:"required"`
	Tone        string `json:"tone"`
}

type TemplateDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
