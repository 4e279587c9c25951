package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moodlink/internal/db"
	"github.com/moodlink/internal/zodiac"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 在指定用户不存在时返回
	ErrUserNotFound = errors.New("user not found")
	// ErrUserInvalidCredentials 邮箱或密码错误
	ErrUserInvalidCredentials = errors.New("invalid email or password")
	// ErrUserEmailTaken 注册邮箱已存在
	ErrUserEmailTaken = errors.New("email already registered")
	// ErrUserInvalidInput 注册信息不完整
	ErrUserInvalidInput = errors.New("invalid user input")
	// ErrPartnerCodeNotFound 绑定码不存在
	ErrPartnerCodeNotFound = errors.New("partner code not found")
	// ErrPartnerSelf 不能绑定自己
	ErrPartnerSelf = errors.New("cannot link to yourself")
	// ErrPartnerAlreadyLinked 任一方已经绑定了其他人
	ErrPartnerAlreadyLinked = errors.New("partner already linked")
)

const (
	minPasswordLength   = 6
	partnerCodeLength   = 8
	partnerCodeAttempts = 5
)

// UserService 负责账号注册、登录校验与伴侣绑定
type UserService struct {
	db *gorm.DB
}

// RegisterInput 定义注册时可填写的字段
type RegisterInput struct {
	Email     string
	Password  string
	Name      string
	BirthDate *time.Time
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Register 创建账号，密码使用 bcrypt 存储，星座由生日推导
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	email := normalizeEmail(input.Email)
	if err := validateRegisterInput(email, input); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrUserEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Email:     email,
		Password:  string(hashed),
		Name:      strings.TrimSpace(input.Name),
		BirthDate: input.BirthDate,
	}
	if input.BirthDate != nil {
		user.ZodiacSign = string(zodiac.ForDate(*input.BirthDate))
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate 校验邮箱与密码，失败统一返回 ErrUserInvalidCredentials
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrUserInvalidCredentials
	}
	return &user, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// EnsureProfile 幂等地补全资料：标记资料已建立，并在缺失时补算星座
func (s *UserService) EnsureProfile(id uint) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	changed := false
	if !user.ProfileReady {
		user.ProfileReady = true
		changed = true
	}
	if user.BirthDate != nil && user.ZodiacSign == "" {
		user.ZodiacSign = string(zodiac.ForDate(*user.BirthDate))
		changed = true
	}

	if changed {
		if err := s.db.Save(user).Error; err != nil {
			return nil, fmt.Errorf("ensure profile: %w", err)
		}
	}
	return user, nil
}

// PartnerCode 返回用户的绑定码，不存在时生成一个
func (s *UserService) PartnerCode(id uint) (string, error) {
	user, err := s.Get(id)
	if err != nil {
		return "", err
	}
	if user.PartnerCode != nil && *user.PartnerCode != "" {
		return *user.PartnerCode, nil
	}

	for attempt := 0; attempt < partnerCodeAttempts; attempt++ {
		code := newPartnerCode()

		var count int64
		if err := s.db.Model(&db.User{}).Where("partner_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check partner code: %w", err)
		}
		if count > 0 {
			continue
		}

		if err := s.db.Model(user).Update("partner_code", code).Error; err != nil {
			return "", fmt.Errorf("save partner code: %w", err)
		}
		return code, nil
	}

	return "", fmt.Errorf("generate partner code: exhausted %d attempts", partnerCodeAttempts)
}

// LinkPartner 通过绑定码将两位用户互相关联
func (s *UserService) LinkPartner(id uint, code string) (*db.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrPartnerCodeNotFound
	}

	var linked db.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var user db.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		var partner db.User
		if err := tx.Where("partner_code = ?", code).First(&partner).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPartnerCodeNotFound
			}
			return err
		}

		if partner.ID == user.ID {
			return ErrPartnerSelf
		}
		if linkedElsewhere(user, partner.ID) || linkedElsewhere(partner, user.ID) {
			return ErrPartnerAlreadyLinked
		}

		if err := tx.Model(&user).Update("partner_id", partner.ID).Error; err != nil {
			return err
		}
		if err := tx.Model(&partner).Update("partner_id", user.ID).Error; err != nil {
			return err
		}

		partnerID := partner.ID
		user.PartnerID = &partnerID
		linked = user
		return nil
	})
	if err != nil {
		if isUserDomainError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("link partner: %w", err)
	}
	return &linked, nil
}

func linkedElsewhere(user db.User, otherID uint) bool {
	return user.PartnerID != nil && *user.PartnerID != otherID
}

func isUserDomainError(err error) bool {
	for _, target := range []error{ErrUserNotFound, ErrPartnerCodeNotFound, ErrPartnerSelf, ErrPartnerAlreadyLinked} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func newPartnerCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:partnerCodeLength])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateRegisterInput(email string, input RegisterInput) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrUserInvalidInput)
	}
	if len(input.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, minPasswordLength)
	}
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrUserInvalidInput)
	}
	return nil
}
