package database

import (
	"fmt"
	"log"
	"skill_assessment_backend/internal/config"
	"skill_assessment_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.Skill{},
		&model.Question{},
		&model.UserSession{},
		&model.AssessmentFeedback{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 默认技能（空库时插入几个常用技能，方便联调）
	var count int64
	db.Model(&model.Skill{}).Count(&count)
	if count == 0 {
		defaultSkills := []model.Skill{
			{Name: "JavaScript", Description: "Core language features, scope, syntax and async patterns"},
			{Name: "UX/UI Design", Description: "UX principles, research, prototyping and usability"},
			{Name: "SQL", Description: "Queries, joins, indexing and data modeling"},
		}
		for _, s := range defaultSkills {
			db.Create(&s)
		}
	}

	return db, nil
}
