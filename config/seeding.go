package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"p9e.in/fcrm/models"
)

// RunAllSeeding seeds permissions, roles, lookups and managers. Safe to run repeatedly.
func RunAllSeeding(db *gorm.DB) error {
	log.Println("=== Starting Database Seeding ===")

	log.Println("[1/3] Seeding Permissions and Roles...")
	if err := SeedPermissions(db); err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}

	log.Println("[2/3] Seeding Lookups...")
	if err := SeedLookups(db); err != nil {
		return fmt.Errorf("seed lookups: %w", err)
	}

	log.Println("[3/3] Seeding Managers...")
	if err := SeedManagers(db); err != nil {
		return fmt.Errorf("seed managers: %w", err)
	}

	log.Println("=== Database Seeding Complete ===")
	return nil
}

// DefaultPermissions is the full permission catalogue.
var DefaultPermissions = []models.Permission{
	// ===== Complaints =====
	{Name: "complaint:create", Section: "Complaints", Resource: "complaint", Action: "create", Description: "Register complaints"},
	{Name: "complaint:read", Section: "Complaints", Resource: "complaint", Action: "read", Description: "View all complaints"},
	{Name: "complaint:read_own", Section: "Complaints", Resource: "complaint", Action: "read_own", Description: "View own complaints"},
	{Name: "complaint:update_status", Section: "Complaints", Resource: "complaint", Action: "update_status", Description: "Change complaint status"},
	{Name: "complaint:categorize", Section: "Complaints", Resource: "complaint", Action: "categorize", Description: "Categorize complaints"},
	{Name: "complaint:assign", Section: "Complaints", Resource: "complaint", Action: "assign", Description: "Assign complaints to managers"},
	{Name: "complaint:resolve", Section: "Complaints", Resource: "complaint", Action: "resolve", Description: "Resolve complaints"},
	{Name: "complaint:close", Section: "Complaints", Resource: "complaint", Action: "close", Description: "Close complaints"},
	{Name: "complaint:export", Section: "Complaints", Resource: "complaint", Action: "export", Description: "Export complaint register and reports"},

	// ===== Dashboard =====
	{Name: "dashboard:view", Section: "Dashboard", Resource: "dashboard", Action: "read", Description: "View organisation dashboard"},

	// ===== Admin / Users / Roles =====
	{Name: "user:read", Section: "Administration", Resource: "user", Action: "read", Description: "View users"},
	{Name: "user:create", Section: "Administration", Resource: "user", Action: "create", Description: "Create users"},
	{Name: "user:update", Section: "Administration", Resource: "user", Action: "update", Description: "Edit users"},
	{Name: "user:delete", Section: "Administration", Resource: "user", Action: "delete", Description: "Deactivate users"},
	{Name: "role:read", Section: "Administration", Resource: "role", Action: "read", Description: "View roles"},
	{Name: "role:create", Section: "Administration", Resource: "role", Action: "create", Description: "Create roles"},
	{Name: "role:update", Section: "Administration", Resource: "role", Action: "update", Description: "Edit role permissions"},
	{Name: "permission:read", Section: "Administration", Resource: "permission", Action: "read", Description: "View permissions"},
	{Name: "settings:manage", Section: "Administration", Resource: "settings", Action: "manage", Description: "Manage settings"},
}

type roleSeed struct {
	Name        string
	Description string
	Permissions []string // nil means every permission
}

var defaultRoles = []roleSeed{
	{
		Name:        models.RoleSuperAdmin,
		Description: "Full system access",
	},
	{
		Name:        models.RoleFCMUser,
		Description: "Feedback and complaint officer",
		Permissions: []string{
			"dashboard:view",
			"complaint:create", "complaint:read", "complaint:update_status", "complaint:categorize",
			"complaint:assign", "complaint:resolve", "complaint:close", "complaint:export",
		},
	},
	{
		Name:        models.RoleRegisteredUser,
		Description: "Can register complaints and follow their own",
		Permissions: []string{"complaint:create", "complaint:read_own"},
	},
}

// SeedPermissions creates the permission catalogue and the default roles.
// Existing roles keep whatever permissions an administrator has given them;
// only newly created roles receive their defaults.
func SeedPermissions(db *gorm.DB) error {
	permMap := make(map[string]models.Permission, len(DefaultPermissions))
	for _, p := range DefaultPermissions {
		perm := p
		var existing models.Permission
		err := db.Where("name = ?", perm.Name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := db.Create(&perm).Error; err != nil {
				return fmt.Errorf("create permission %s: %w", perm.Name, err)
			}
			permMap[perm.Name] = perm
		case err != nil:
			return err
		default:
			permMap[existing.Name] = existing
		}
	}

	for _, rs := range defaultRoles {
		var role models.Role
		err := db.Where("name = ?", rs.Name).First(&role).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("DB error fetching role %s: %w", rs.Name, err)
		}

		role = models.Role{Name: rs.Name, Description: rs.Description, IsActive: true}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("create role %s: %w", rs.Name, err)
		}

		names := rs.Permissions
		if names == nil {
			for _, p := range DefaultPermissions {
				names = append(names, p.Name)
			}
		}
		for _, name := range names {
			perm, ok := permMap[name]
			if !ok {
				log.Printf("  ❌ Permission '%s' not found for role '%s'", name, role.Name)
				continue
			}
			rp := models.RolePermission{RoleID: role.ID, PermissionID: perm.ID, CreatedAt: time.Now()}
			if err := db.Create(&rp).Error; err != nil {
				return fmt.Errorf("assign %s to %s: %w", name, role.Name, err)
			}
		}
		log.Printf("✅ Created role '%s' with %d permissions", role.Name, len(names))
	}
	return nil
}

var (
	defaultProjects = []string{"Education Support", "Health Outreach", "Livelihoods", "Water & Sanitation", "Emergency Response"}
	defaultSources  = []string{"Hotline", "Email", "SMS", "Walk-in", "Complaint Box", "Field Visit", "Social Media"}
	defaultTypes    = []models.FeedbackType{
		{ID: models.FeedbackTypeRequest, Name: "Request for Assistance"},
		{ID: models.FeedbackTypePositive, Name: "Positive Feedback"},
		{ID: models.FeedbackTypeMinorDissatisfaction, Name: "Minor Dissatisfaction"},
		{ID: models.FeedbackTypeMajorDissatisfaction, Name: "Major Dissatisfaction"},
		{ID: models.FeedbackTypeSuggestion, Name: "Suggestion for Improvement"},
		{ID: models.FeedbackTypeOther, Name: "Other"},
	}
)

// SeedLookups fills projects, sources and feedback types when missing.
func SeedLookups(db *gorm.DB) error {
	for _, name := range defaultProjects {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.FeedbackProject{Name: name}).Error; err != nil {
			return err
		}
	}
	for _, name := range defaultSources {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.FeedbackSource{Name: name}).Error; err != nil {
			return err
		}
	}
	for _, ft := range defaultTypes {
		t := ft
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&t).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedManagers adds a placeholder manager per project when the table is empty.
func SeedManagers(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Manager{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, project := range defaultProjects {
		m := models.Manager{Name: project + " Manager"}
		if err := db.Create(&m).Error; err != nil {
			return err
		}
	}
	return nil
}

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrRoleNotFound = errors.New("role not found")
)

// CreateUser hashes the password and creates an active user with the named role.
func CreateUser(db *gorm.DB, name, email, password, roleName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("name, email and password are required")
	}

	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRoleNotFound, roleName)
		}
		return nil, err
	}

	var existing int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	u := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		RoleID:       &role.ID,
		IsActive:     true,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, err
	}
	u.RoleModel = &role
	return &u, nil
}
