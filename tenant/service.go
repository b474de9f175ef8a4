package tenant

import (
	"time"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/cache"
	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/util"
	"github.com/docuflow/docuflow/workflow"
)

const TABLE_TENANTS string = "Tenants"
const TABLE_USERS string = "Users"
const TABLE_TENANT_GROUPS string = "TenantGroups"
const TABLE_TENANT_GROUP_USERS string = "TenantGroupUsers"
const TABLE_TENANT_DOCUMENTS string = "TenantDocuments"

var allTables = []string{
	TABLE_TENANT_DOCUMENTS,
	TABLE_TENANT_GROUPS,
	TABLE_TENANT_GROUP_USERS,
	TABLE_TENANTS,
	workflow.TABLE_TENANT_WORKFLOWS,
	TABLE_USERS,
}

// Service hosts tenant, membership and document operations. It implements
// workflow.TenantDocumentSink, which is how the engine creates and rolls
// back clone-on-transition documents without depending on this package.
type Service struct {
	rows       persistence.RowStore
	blobs      persistence.BlobStore
	cache      *cache.Cache
	engine     *workflow.Engine
	audit      *AuditLog
	readExpiry time.Duration
}

var _ workflow.TenantDocumentSink = new(Service)

func NewService(rows persistence.RowStore, blobs persistence.BlobStore, ch *cache.Cache, engine *workflow.Engine, audit *AuditLog) *Service {
	return &Service{
		rows:       rows,
		blobs:      blobs,
		cache:      ch,
		engine:     engine,
		audit:      audit,
		readExpiry: 30 * time.Second,
	}
}

func (s *Service) Engine() *workflow.Engine {
	return s.engine
}

func commonDefaults() map[string]any {
	now := util.NowISO()
	return map[string]any{"created": now, "updated": now}
}

func mergeRecords(records ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, record := range records {
		for k, v := range record {
			merged[k] = v
		}
	}
	return merged
}

// EnsureExists creates the tenant row if it is missing; an existing
// tenant is left untouched.
func (s *Service) EnsureExists(tenantID string, defaults map[string]any) error {
	logger.Info("ensure tenant exists", zap.String("tenant", tenantID))
	record := mergeRecords(commonDefaults(), defaults, map[string]any{"id": tenantID})
	_, err := s.rows.Put(TABLE_TENANTS, tenantID, "", record, persistence.CREATE_OR_SUCCEED)
	return err
}

func (s *Service) FetchTenantDetails(tenantID string) (*model.TenantDetails, error) {
	record, err := s.rows.Get(TABLE_TENANTS, tenantID, "")
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	displayName, _ := record["displayName"].(string)
	return &model.TenantDetails{DisplayName: displayName}, nil
}

// EnsureUserExists creates the user if needed and guarantees the tenant
// is in the user's tenancy list.
func (s *Service) EnsureUserExists(tenantID string, userID string, defaults map[string]any) (*model.User, error) {
	logger.Info("ensure user exists", zap.String("user", userID), zap.String("tenant", tenantID))
	defaultUser := &model.User{ID: userID, Tenants: []string{tenantID}}
	record := mergeRecords(commonDefaults(), defaultUser.Record(), defaults)
	stored, err := s.rows.Put(TABLE_USERS, userID, "", record, persistence.CREATE_OR_SUCCEED)
	if err != nil {
		return nil, err
	}
	user := model.UserFromRecord(stored)
	if !user.HasTenant(tenantID) {
		user.Tenants = append(user.Tenants, tenantID)
		user.Updated = util.NowISO()
		stored = mergeRecords(stored, user.Record())
		if stored, err = s.rows.Put(TABLE_USERS, userID, "", stored, persistence.CREATE_OR_OVERWRITE); err != nil {
			return nil, err
		}
		user = model.UserFromRecord(stored)
	}
	return user, nil
}

func (s *Service) FetchUser(userID string) (*model.User, error) {
	record, err := s.rows.Get(TABLE_USERS, userID, "")
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return model.UserFromRecord(record), nil
}

// FetchOrCreateGroup finds the tenant's group by name, creating it with
// the given permissions when absent.
func (s *Service) FetchOrCreateGroup(tenantID string, groupName string, permissions string) (*model.Group, error) {
	logger.Info("ensure group exists", zap.String("group", groupName), zap.String("tenant", tenantID))
	records, err := s.rows.Query(TABLE_TENANT_GROUPS, tenantID, nil)
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if record["name"] == groupName {
			return groupFromRecord(record), nil
		}
	}
	id := util.NewId()
	record := mergeRecords(commonDefaults(), map[string]any{
		"id":          id,
		"name":        groupName,
		"tenantId":    tenantID,
		"permissions": permissions,
	})
	stored, err := s.rows.Put(TABLE_TENANT_GROUPS, tenantID, id, record, persistence.CREATE_OR_SUCCEED)
	if err != nil {
		return nil, err
	}
	return groupFromRecord(stored), nil
}

func groupFromRecord(record map[string]any) *model.Group {
	str := func(key string) string {
		v, _ := record[key].(string)
		return v
	}
	return &model.Group{
		ID:          str("id"),
		Name:        str("name"),
		TenantID:    str("tenantId"),
		Permissions: str("permissions"),
		Created:     str("created"),
		Updated:     str("updated"),
	}
}

func (s *Service) EnsureGroupMembership(tenantID string, group *model.Group, userID string) error {
	logger.Info("ensure group membership",
		zap.String("group", group.Name), zap.String("tenant", tenantID), zap.String("user", userID))
	record := mergeRecords(commonDefaults(), map[string]any{
		"groupId": group.ID,
		"userId":  userID,
	})
	_, err := s.rows.Put(TABLE_TENANT_GROUP_USERS, tenantID, userID+"_"+group.ID, record, persistence.CREATE_OR_SUCCEED)
	return err
}

func (s *Service) EnsureDefaultWorkflows(tenantID string, defs []model.WorkflowDefinition) error {
	for i := range defs {
		if err := s.engine.EnsureExists(tenantID, &defs[i]); err != nil {
			return err
		}
	}
	return nil
}

// PurgeSessionPrefix removes every row, blob and cache entry whose
// partition or container starts with the prefix. Used by the acceptance
// harness to clean up test sessions.
func (s *Service) PurgeSessionPrefix(prefix string) error {
	for _, table := range allTables {
		if err := s.rows.DeletePartitionPrefix(table, prefix); err != nil {
			return err
		}
	}
	if err := s.blobs.DeleteContainersWithPrefix(prefix); err != nil {
		return err
	}
	s.cache.InvalidatePrefix(cache.Key("documents", prefix))
	s.cache.InvalidatePrefix(cache.Key("workflow", prefix))
	logger.Info("deleted session", zap.String("prefix", prefix))
	return nil
}
