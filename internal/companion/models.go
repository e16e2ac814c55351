package companion

import "time"

type Category struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name string `gorm:"type:varchar(191);uniqueIndex;not null" json:"name"`
}

func (Category) TableName() string { return "categories" }

type Companion struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(191);index;not null" json:"name"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	Instructions string    `gorm:"type:text;not null" json:"instructions"`
	Seed         string    `gorm:"type:text;not null" json:"seed"`
	Src          string    `gorm:"type:text;not null" json:"src"`
	CategoryID   string    `gorm:"type:varchar(36);index;not null" json:"categoryId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Companion) TableName() string { return "companions" }

// Fields is the editable part of a Companion, as captured by the form.
type Fields struct {
	Name         string `json:"name" form:"name"`
	Description  string `json:"description" form:"description"`
	Instructions string `json:"instructions" form:"instructions"`
	Seed         string `json:"seed" form:"seed"`
	Src          string `json:"src" form:"src"`
	CategoryID   string `json:"categoryId" form:"categoryId"`
}

func (c *Companion) Fields() Fields {
	return Fields{
		Name:         c.Name,
		Description:  c.Description,
		Instructions: c.Instructions,
		Seed:         c.Seed,
		Src:          c.Src,
		CategoryID:   c.CategoryID,
	}
}

func (c *Companion) apply(f Fields) {
	c.Name = f.Name
	c.Description = f.Description
	c.Instructions = f.Instructions
	c.Seed = f.Seed
	c.Src = f.Src
	c.CategoryID = f.CategoryID
}
