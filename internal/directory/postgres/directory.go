package postgres

import (
	"errors"
	"strings"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/directory"
	"gorm.io/gorm"
)

// DirectoryRepository implements the directory.Repository interface using GORM.
// Role rows and their credential rows are written inside one transaction.
type DirectoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) directory.Repository {
	return &DirectoryRepository{db: db}
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

func (r *DirectoryRepository) checkIdentityFree(tx *gorm.DB, username, email string) error {
	var count int64
	err := tx.Model(&directory.Credential{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrDuplicateIdentity
	}
	return nil
}

func (r *DirectoryRepository) CreateManager(m *directory.Manager, cred *directory.Credential) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkIdentityFree(tx, cred.Username, cred.Email); err != nil {
			return err
		}
		if err := tx.Create(cred).Error; err != nil {
			if isDuplicateErr(err) {
				return internal.ErrDuplicateIdentity
			}
			return err
		}
		m.UserID = cred.ID
		if err := tx.Create(m).Error; err != nil {
			if isDuplicateErr(err) {
				return internal.ErrDuplicateIdentity
			}
			return err
		}
		return nil
	})
}

func (r *DirectoryRepository) GetManager(id int64) (*directory.Manager, error) {
	var m directory.Manager
	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrManagerNotFound
		}
		return nil, err
	}
	return &m, nil
}

// moveLogin rewrites the credential's username and email together. Logins
// resolve by username, so both columns follow an email change.
func moveLogin(tx *gorm.DB, userID int64, newLogin string) error {
	var count int64
	err := tx.Model(&directory.Credential{}).
		Where("(username = ? OR email = ?) AND id <> ?", newLogin, newLogin, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrDuplicateIdentity
	}
	return tx.Model(&directory.Credential{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"username": newLogin,
			"email":    newLogin,
		}).Error
}

// UpdateManager persists edits. A non-empty newLogin means the email changed
// and the credential login has to move with it, atomically.
func (r *DirectoryRepository) UpdateManager(m *directory.Manager, newLogin string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if newLogin != "" {
			if err := moveLogin(tx, m.UserID, newLogin); err != nil {
				return err
			}
		}
		return tx.Save(m).Error
	})
}

// DeleteManager refuses to delete a manager who still has employees reporting
// to them or travel requests assigned to them, so approvals never lose their
// deciding party and ticket history keeps its manager.
func (r *DirectoryRepository) DeleteManager(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var m directory.Manager
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return internal.ErrManagerNotFound
			}
			return err
		}

		var reports int64
		err := tx.Model(&directory.Employee{}).
			Where("manager_id = ?", id).
			Count(&reports).Error
		if err != nil {
			return err
		}
		if reports > 0 {
			return internal.ErrRecordReferenced
		}

		var tickets int64
		err = tx.Table("travel_requests").
			Where("manager_id = ?", id).
			Count(&tickets).Error
		if err != nil {
			return err
		}
		if tickets > 0 {
			return internal.ErrRecordReferenced
		}

		if err := tx.Delete(&directory.Manager{}, id).Error; err != nil {
			return err
		}
		return tx.Delete(&directory.Credential{}, m.UserID).Error
	})
}

func (r *DirectoryRepository) ListManagers() ([]directory.DirectoryEntry, error) {
	var entries []directory.DirectoryEntry
	err := r.db.Model(&directory.Manager{}).
		Select("id, first_name, last_name, email").
		Order("last_name ASC, first_name ASC").
		Find(&entries).Error
	return entries, err
}

func (r *DirectoryRepository) CreateEmployee(e *directory.Employee, cred *directory.Credential) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkIdentityFree(tx, cred.Username, cred.Email); err != nil {
			return err
		}
		if err := tx.Create(cred).Error; err != nil {
			if isDuplicateErr(err) {
				return internal.ErrDuplicateIdentity
			}
			return err
		}
		e.UserID = cred.ID
		if err := tx.Create(e).Error; err != nil {
			if isDuplicateErr(err) {
				return internal.ErrDuplicateIdentity
			}
			return err
		}
		return nil
	})
}

func (r *DirectoryRepository) GetEmployee(id int64) (*directory.Employee, error) {
	var e directory.Employee
	err := r.db.Where("id = ?", id).First(&e).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *DirectoryRepository) UpdateEmployee(e *directory.Employee, newLogin string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if newLogin != "" {
			if err := moveLogin(tx, e.UserID, newLogin); err != nil {
				return err
			}
		}
		return tx.Save(e).Error
	})
}

// DeleteEmployee refuses while travel requests still reference the employee.
// Ticket history outlives nothing; it blocks the delete instead.
func (r *DirectoryRepository) DeleteEmployee(id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var e directory.Employee
		if err := tx.Where("id = ?", id).First(&e).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return internal.ErrEmployeeNotFound
			}
			return err
		}

		var tickets int64
		err := tx.Table("travel_requests").
			Where("employee_id = ?", id).
			Count(&tickets).Error
		if err != nil {
			return err
		}
		if tickets > 0 {
			return internal.ErrRecordReferenced
		}

		if err := tx.Delete(&directory.Employee{}, id).Error; err != nil {
			return err
		}
		return tx.Delete(&directory.Credential{}, e.UserID).Error
	})
}

func (r *DirectoryRepository) ListEmployees() ([]directory.DirectoryEntry, error) {
	var entries []directory.DirectoryEntry
	err := r.db.Model(&directory.Employee{}).
		Select("id, first_name, last_name, email").
		Order("last_name ASC, first_name ASC").
		Find(&entries).Error
	return entries, err
}

func (r *DirectoryRepository) CreateAdmin(a *directory.Admin, cred *directory.Credential) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.checkIdentityFree(tx, cred.Username, cred.Email); err != nil {
			return err
		}
		if err := tx.Create(cred).Error; err != nil {
			if isDuplicateErr(err) {
				return internal.ErrDuplicateIdentity
			}
			return err
		}
		a.UserID = cred.ID
		if err := tx.Create(a).Error; err != nil {
			if isDuplicateErr(err) {
				return internal.ErrDuplicateIdentity
			}
			return err
		}
		return nil
	})
}

func (r *DirectoryRepository) GetAdmin(id int64) (*directory.Admin, error) {
	var a directory.Admin
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}
