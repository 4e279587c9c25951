package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/moodlink/internal/config"
	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/mood"
	"github.com/moodlink/internal/service"
	"gorm.io/gorm"
)

const seedPassword = "moodlink123"

var seedLabels = []string{"", "约会", "加班", "运动", "看电影", "下雨", ""}

// 测试数据生成器：一对已绑定的情侣和最近 30 天的心情
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("时区配置错误:", err)
	}

	fmt.Println("开始生成测试数据...")
	if err := seedCouple(db.DB, mood.NewEngine(loc), time.Now().In(loc), rand.New(rand.NewSource(42))); err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: mia@example.com / leo@example.com (密码: %s)\n", seedPassword)
}

// seedCouple 创建两位用户、互相绑定，并为双方写入截至 today 的 30 天记录
// 重复执行时跳过已存在的用户与记录
func seedCouple(gdb *gorm.DB, engine *mood.Engine, today time.Time, rng *rand.Rand) error {
	users := service.NewUserService(gdb)
	moods := service.NewMoodService(gdb, engine, mood.DefaultInsightBands())

	birthMia := time.Date(1996, 4, 2, 0, 0, 0, 0, time.UTC)
	birthLeo := time.Date(1995, 8, 1, 0, 0, 0, 0, time.UTC)
	mia, err := ensureSeedUser(users, "mia@example.com", "Mia", &birthMia)
	if err != nil {
		return err
	}
	leo, err := ensureSeedUser(users, "leo@example.com", "Leo", &birthLeo)
	if err != nil {
		return err
	}

	if mia.PartnerID == nil {
		code, err := users.PartnerCode(mia.ID)
		if err != nil {
			return err
		}
		if _, err := users.LinkPartner(leo.ID, code); err != nil && !errors.Is(err, service.ErrPartnerAlreadyLinked) {
			return err
		}
	}

	start := engine.Day(today).AddDate(0, 0, -29)
	for i := 0; i < 30; i++ {
		day := start.AddDate(0, 0, i)
		for _, owner := range []uint{mia.ID, leo.ID} {
			// 约两成的日子不记录
			if rng.Intn(5) == 0 {
				continue
			}
			_, err := moods.Record(owner, service.MoodEntryInput{
				Date:       day,
				Level:      1 + rng.Intn(5),
				EventLabel: seedLabels[rng.Intn(len(seedLabels))],
			})
			if err != nil && !errors.Is(err, service.ErrMoodEntryExists) {
				return err
			}
		}
	}
	return nil
}

func ensureSeedUser(users *service.UserService, email, name string, birth *time.Time) (*db.User, error) {
	user, err := users.Register(service.RegisterInput{Email: email, Password: seedPassword, Name: name, BirthDate: birth})
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, service.ErrUserEmailTaken) {
		return nil, err
	}
	return users.Authenticate(email, seedPassword)
}
