package service

import (
	"strings"
	"time"

	"github.com/lumen-optics/internal/constants"
	"github.com/lumen-optics/internal/logger"
	"github.com/lumen-optics/internal/models"
	"github.com/lumen-optics/internal/repository"

	"gorm.io/gorm"
)

const dateOfBirthLayout = "2006-01-02"

// UserService 用户资料、地址与处方服务
type UserService struct {
	userRepo         repository.UserRepository
	addressRepo      repository.AddressRepository
	prescriptionRepo repository.PrescriptionRepository
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository, addressRepo repository.AddressRepository, prescriptionRepo repository.PrescriptionRepository) *UserService {
	return &UserService{
		userRepo:         userRepo,
		addressRepo:      addressRepo,
		prescriptionRepo: prescriptionRepo,
	}
}

// GetProfile 获取用户资料
func (s *UserService) GetProfile(userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfileInput 资料更新输入（指针为空表示不修改）
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Email       *string
	DateOfBirth *string
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		normalized, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		taken, err := s.userRepo.EmailTakenByOther(normalized, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailExists
		}
		user.Email = normalized
	}
	if input.Phone != nil {
		if !isValidPhone(*input.Phone) {
			return nil, ErrInvalidPhone
		}
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.FirstName != nil {
		user.FirstName = sanitizePlainText(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = sanitizePlainText(*input.LastName)
	}
	if input.DateOfBirth != nil {
		raw := strings.TrimSpace(*input.DateOfBirth)
		if raw == "" {
			user.DateOfBirth = nil
		} else {
			parsed, err := time.Parse(dateOfBirthLayout, raw)
			if err != nil {
				return nil, newValidationError(ErrInvalidInput, "date_of_birth must use format YYYY-MM-DD")
			}
			user.DateOfBirth = &parsed
		}
	}

	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// AddressInput 地址输入
type AddressInput struct {
	Type         string `json:"type" validate:"omitempty,oneof=shipping billing"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Company      string `json:"company" validate:"max=200"`
	AddressLine1 string `json:"address_line_1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line_2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=100"`
	State        string `json:"state" validate:"required,max=100"`
	PostalCode   string `json:"postal_code" validate:"required,postal_code"`
	Country      string `json:"country" validate:"required,max=100"`
	Phone        string `json:"phone" validate:"omitempty,phone_digits"`
	IsDefault    bool   `json:"is_default"`
}

func (in AddressInput) apply(address *models.Address) {
	address.Type = in.Type
	if address.Type == "" {
		address.Type = constants.AddressTypeShipping
	}
	address.FirstName = sanitizePlainText(in.FirstName)
	address.LastName = sanitizePlainText(in.LastName)
	address.Company = sanitizePlainText(in.Company)
	address.AddressLine1 = sanitizePlainText(in.AddressLine1)
	address.AddressLine2 = sanitizePlainText(in.AddressLine2)
	address.City = sanitizePlainText(in.City)
	address.State = sanitizePlainText(in.State)
	address.PostalCode = strings.TrimSpace(in.PostalCode)
	address.Country = sanitizePlainText(in.Country)
	address.Phone = strings.TrimSpace(in.Phone)
	address.IsDefault = in.IsDefault
}

// ListAddresses 地址列表
func (s *UserService) ListAddresses(userID uint, addressType string) ([]models.Address, error) {
	addressType = strings.ToLower(strings.TrimSpace(addressType))
	if addressType != "" && addressType != constants.AddressTypeShipping && addressType != constants.AddressTypeBilling {
		return nil, newValidationError(ErrAddressInvalid, "type must be one of: shipping billing")
	}
	return s.addressRepo.ListByUser(userID, addressType)
}

// CreateAddress 新增地址，设为默认时取消同类型其他默认地址
func (s *UserService) CreateAddress(userID uint, input AddressInput) (*models.Address, error) {
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if err := validateStruct(ErrAddressInvalid, input); err != nil {
		return nil, err
	}
	address := &models.Address{UserID: userID}
	input.apply(address)

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.addressRepo.WithTx(tx)
		if err := repo.Create(address); err != nil {
			return err
		}
		if address.IsDefault {
			return repo.ClearDefault(userID, address.Type, address.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// UpdateAddress 更新地址
func (s *UserService) UpdateAddress(userID, addressID uint, input AddressInput) (*models.Address, error) {
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))
	if err := validateStruct(ErrAddressInvalid, input); err != nil {
		return nil, err
	}
	address, err := s.addressRepo.GetByIDAndUser(addressID, userID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}
	input.apply(address)

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.addressRepo.WithTx(tx)
		if address.IsDefault {
			if err := repo.ClearDefault(userID, address.Type, address.ID); err != nil {
				return err
			}
		}
		return repo.Update(address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// DeleteAddress 删除地址
func (s *UserService) DeleteAddress(userID, addressID uint) error {
	affected, err := s.addressRepo.Delete(addressID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// PrescriptionInput 处方输入
type PrescriptionInput struct {
	PrescriptionName  string   `json:"prescription_name" validate:"required,max=100"`
	RightSphere       *float64 `json:"right_sphere" validate:"omitnil,gte=-20,lte=20"`
	RightCylinder     *float64 `json:"right_cylinder" validate:"omitnil,gte=-6,lte=0"`
	RightAxis         *int     `json:"right_axis" validate:"omitnil,gte=0,lte=180"`
	RightAdd          *float64 `json:"right_add" validate:"omitnil,gte=0,lte=4"`
	LeftSphere        *float64 `json:"left_sphere" validate:"omitnil,gte=-20,lte=20"`
	LeftCylinder      *float64 `json:"left_cylinder" validate:"omitnil,gte=-6,lte=0"`
	LeftAxis          *int     `json:"left_axis" validate:"omitnil,gte=0,lte=180"`
	LeftAdd           *float64 `json:"left_add" validate:"omitnil,gte=0,lte=4"`
	PupillaryDistance *float64 `json:"pupillary_distance" validate:"omitnil,gte=20,lte=80"`
	DoctorName        string   `json:"doctor_name" validate:"max=100"`
	PrescriptionDate  string   `json:"prescription_date" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate        string   `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Notes             string   `json:"notes"`
	IsDefault         bool     `json:"is_default"`
}

func (in PrescriptionInput) apply(row *models.Prescription) {
	row.PrescriptionName = sanitizePlainText(in.PrescriptionName)
	row.RightSphere = in.RightSphere
	row.RightCylinder = in.RightCylinder
	row.RightAxis = in.RightAxis
	row.RightAdd = in.RightAdd
	row.LeftSphere = in.LeftSphere
	row.LeftCylinder = in.LeftCylinder
	row.LeftAxis = in.LeftAxis
	row.LeftAdd = in.LeftAdd
	row.PupillaryDistance = in.PupillaryDistance
	row.DoctorName = sanitizePlainText(in.DoctorName)
	row.PrescriptionDate = parseOptionalDate(in.PrescriptionDate)
	row.ExpiryDate = parseOptionalDate(in.ExpiryDate)
	row.Notes = sanitizePlainText(in.Notes)
	row.IsDefault = in.IsDefault
}

func parseOptionalDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(dateOfBirthLayout, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

// ListPrescriptions 处方列表
func (s *UserService) ListPrescriptions(userID uint) ([]models.Prescription, error) {
	return s.prescriptionRepo.ListByUser(userID)
}

// CreatePrescription 新增处方
func (s *UserService) CreatePrescription(userID uint, input PrescriptionInput) (*models.Prescription, error) {
	if err := validateStruct(ErrPrescriptionInvalid, input); err != nil {
		return nil, err
	}
	row := &models.Prescription{UserID: userID}
	input.apply(row)

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.prescriptionRepo.WithTx(tx)
		if err := repo.Create(row); err != nil {
			return err
		}
		if row.IsDefault {
			return repo.ClearDefault(userID, row.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Debugw("prescription_created", "user_id", userID, "prescription_id", row.ID)
	return row, nil
}

// UpdatePrescription 更新处方
func (s *UserService) UpdatePrescription(userID, prescriptionID uint, input PrescriptionInput) (*models.Prescription, error) {
	if err := validateStruct(ErrPrescriptionInvalid, input); err != nil {
		return nil, err
	}
	row, err := s.prescriptionRepo.GetByIDAndUser(prescriptionID, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrPrescriptionNotFound
	}
	input.apply(row)

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.prescriptionRepo.WithTx(tx)
		if row.IsDefault {
			if err := repo.ClearDefault(userID, row.ID); err != nil {
				return err
			}
		}
		return repo.Update(row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// DeletePrescription 删除处方
func (s *UserService) DeletePrescription(userID, prescriptionID uint) error {
	affected, err := s.prescriptionRepo.Delete(prescriptionID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPrescriptionNotFound
	}
	return nil
}
