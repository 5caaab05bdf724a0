package kpi

const (
	TitleMinLength       = 5
	TitleMaxLength       = 60
	DescriptionMinLength = 50
	DescriptionMaxLength = 1000

	EntityType = "kpi"
)
