package tenant

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/cache"
	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/util"
	"github.com/docuflow/docuflow/workflow"
)

func documentCacheKey(tenantID string, documentID string) string {
	return cache.Key("documents", tenantID, documentID)
}

func listCacheKey(tenantID string) string {
	return cache.Key("documents", tenantID, "list")
}

// invalidateDocument drops the document's cached reads and the tenant's
// list views. Invalidation happens before the definitive write; the cache
// is best effort, not linearizable.
func (s *Service) invalidateDocument(tenantID string, documentID string) {
	s.cache.InvalidatePrefix(documentCacheKey(tenantID, documentID))
	s.cache.InvalidatePrefix(listCacheKey(tenantID))
}

func (s *Service) ListDocuments(tenantID string) ([]*model.Document, error) {
	value, err := s.cache.ReadThrough(listCacheKey(tenantID), s.readExpiry, func() (any, error) {
		records, err := s.rows.Query(TABLE_TENANT_DOCUMENTS, tenantID, nil)
		if err != nil {
			return nil, err
		}
		return documentsFromRecords(records), nil
	})
	if err != nil {
		return nil, err
	}
	docs, _ := value.([]*model.Document)
	return docs, nil
}

// ListPublicDocuments returns the tenant's documents whose current state
// is public. The flag is derived from workflow state, so this is a plain
// field filter.
func (s *Service) ListPublicDocuments(tenantID string) ([]*model.Document, error) {
	key := cache.Key(listCacheKey(tenantID), "public")
	value, err := s.cache.ReadThrough(key, s.readExpiry, func() (any, error) {
		records, err := s.rows.Query(TABLE_TENANT_DOCUMENTS, tenantID, []persistence.Condition{
			{Field: "public", Value: true},
		})
		if err != nil {
			return nil, err
		}
		return documentsFromRecords(records), nil
	})
	if err != nil {
		return nil, err
	}
	docs, _ := value.([]*model.Document)
	return docs, nil
}

func documentsFromRecords(records []map[string]any) []*model.Document {
	docs := make([]*model.Document, 0, len(records))
	for _, record := range records {
		docs = append(docs, model.DocumentFromRecord(record))
	}
	return docs
}

// FetchDocumentRaw reads the row record without decoration. It also
// serves extractor parent loads through workflow.TenantDocumentSink.
func (s *Service) FetchDocumentRaw(tenantID string, documentID string) (*model.Document, error) {
	record, err := s.rows.Get(TABLE_TENANT_DOCUMENTS, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	return model.DocumentFromRecord(record), nil
}

// FetchDocument reads a document decorated with workflow values and any
// requested includes. Independent include fetches run concurrently and
// join before the view is returned.
func (s *Service) FetchDocument(tenantID string, documentID string, includes []Include) (*model.DocumentView, error) {
	key := documentCacheKey(tenantID, documentID)
	for _, include := range includes {
		key = cache.Key(key, include.String())
	}
	value, err := s.cache.ReadThrough(key, s.readExpiry, func() (any, error) {
		doc, err := s.FetchDocumentRaw(tenantID, documentID)
		if err != nil || doc == nil {
			return nil, err
		}
		return s.decorateDocument(tenantID, doc, includes)
	})
	if err != nil {
		return nil, err
	}
	view, _ := value.(*model.DocumentView)
	return view, nil
}

func (s *Service) decorateDocument(tenantID string, doc *model.Document, includes []Include) (*model.DocumentView, error) {
	view := &model.DocumentView{Document: doc}
	def, err := s.engine.ResolveWorkflowForDocument(tenantID, doc)
	if err != nil {
		return nil, err
	}
	if def != nil {
		values, err := s.engine.FetchWorkflowValues(def, doc)
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			if doc.Values == nil {
				doc.Values = make(map[string]any)
			}
			for k, v := range values {
				doc.Values[k] = v
			}
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	for _, include := range includes {
		include := include
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch include.Kind {
			case INCLUDE_WORKFLOW:
				mu.Lock()
				view.WorkflowDefinition = def
				mu.Unlock()
			case INCLUDE_VALUES:
				// values are always computed above; nothing extra to fetch
			case INCLUDE_TRANSITIONS:
				if def == nil {
					return
				}
				transitions, err := s.engine.FetchValidTransitions(def, doc)
				if err != nil {
					fail(err)
					return
				}
				mu.Lock()
				view.Transitions = transitions
				mu.Unlock()
			case INCLUDE_PART:
				var raw json.RawMessage
				err := s.blobs.GetJSON(tenantID, doc.ID+"-"+include.Name, &raw)
				if persistence.IsNotFound(err) {
					logger.Warn("document part not found",
						zap.String("part", include.Name), zap.String("id", doc.ID))
					return
				}
				if err != nil {
					fail(err)
					return
				}
				mu.Lock()
				if view.Parts == nil {
					view.Parts = make(map[string]json.RawMessage)
				}
				view.Parts[include.Name] = raw
				mu.Unlock()
			case INCLUDE_PARTS:
				blobs, err := s.blobs.ListByPrefix(tenantID, doc.ID+"-"+include.Name)
				if err != nil {
					fail(err)
					return
				}
				mu.Lock()
				if view.Parts == nil {
					view.Parts = make(map[string]json.RawMessage)
				}
				for _, blob := range blobs {
					partName := blob.Name[len(doc.ID)+1:]
					view.Parts[partName] = json.RawMessage(blob.Value)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return view, nil
}

// CreateDocumentForUser creates a tenant document from the user's values.
// The workflow engine assigns the initial state and derived flags when a
// workflow resolves; a document with no resolvable workflow is created
// without a status and cannot change state later.
func (s *Service) CreateDocumentForUser(tenantID string, user *model.User, values map[string]any) (*model.Document, error) {
	doc := (&model.Document{}).Apply(values)
	doc.ID = util.NewId()
	doc.Tenant = tenantID
	doc.CreatedBy = user.ID
	now := util.NowISO()
	doc.Created = now
	doc.Updated = now

	def, err := s.engine.ResolveWorkflowForDocument(tenantID, doc)
	if err != nil {
		return nil, err
	}
	if def != nil {
		if doc.Status == "" {
			defaultState := def.DefaultState()
			if defaultState == nil {
				return nil, fmt.Errorf("workflow %s has no default state", def.ID)
			}
			doc.Status = defaultState.ID
		}
		if _, err := s.engine.MutateStateForItem(def, nil, doc); err != nil {
			return nil, err
		}
	}

	s.invalidateDocument(tenantID, doc.ID)
	stored, err := s.rows.Put(TABLE_TENANT_DOCUMENTS, tenantID, doc.ID, doc.Record(), persistence.CREATE_OR_FAIL)
	if err != nil {
		return nil, err
	}
	return model.DocumentFromRecord(stored), nil
}

// PatchDocument merges a partial update. A status change routes through
// the workflow engine: the transition is validated, derived flags and any
// clone side effect applied, and the clone rolled back if the final write
// fails. Validation failures come back as the middle result, never as an
// error.
func (s *Service) PatchDocument(tenantID string, documentID string, patch map[string]any) (*model.Document, *model.TransitionError, error) {
	current, err := s.FetchDocumentRaw(tenantID, documentID)
	if err != nil {
		return nil, nil, err
	}
	if current == nil {
		return nil, nil, nil
	}
	next := current.Apply(patch)
	next.Updated = util.NowISO()

	var undo workflow.Undo
	statusChanged := next.Status != current.Status
	if statusChanged {
		def, err := s.engine.ResolveWorkflowForDocument(tenantID, current)
		if err != nil {
			return nil, nil, err
		}
		if def == nil {
			return nil, nil, fmt.Errorf("no workflow resolvable for document %s, state change unavailable", documentID)
		}
		if terr := workflow.ValidateTransition(def, current.Status, next.Status); terr != nil {
			return nil, terr, nil
		}
		if undo, err = s.engine.MutateStateForItem(def, current, next); err != nil {
			return nil, nil, err
		}
	}

	s.invalidateDocument(tenantID, documentID)
	stored, err := s.rows.Put(TABLE_TENANT_DOCUMENTS, tenantID, documentID, next.Record(), persistence.CREATE_OR_OVERWRITE)
	if err != nil {
		if undo != nil {
			if undoErr := undo(); undoErr != nil {
				logger.Error("failed to roll back clone after write failure",
					zap.String("id", documentID), zap.Error(undoErr))
			}
			s.audit.RecordRollback(tenantID, documentID)
		}
		return nil, nil, err
	}
	if statusChanged {
		s.audit.RecordTransition(tenantID, documentID, current.Status, next.Status)
	}
	return model.DocumentFromRecord(stored), nil, nil
}

// CloneDocumentForTenant creates a document in this tenant from a
// prototype copy carrying transient clone markers. Lineage is remapped:
// the prototype becomes the parent, the prototype's parent the
// grandparent. Part blobs are duplicated under the new id; if that copy
// fails the just-created row is removed before the error propagates.
func (s *Service) CloneDocumentForTenant(tenantID string, doc *model.Document) (*model.Document, error) {
	if doc.CloneID == "" || doc.CloneTenant == "" {
		return nil, fmt.Errorf("clone payload missing clone-id/clone-tenant markers")
	}
	protoID := doc.CloneID
	protoTenant := doc.CloneTenant

	newDoc := doc.DeepCopy()
	newDoc.ID = util.NewId()
	newDoc.Tenant = tenantID
	newDoc.GrandParentID = doc.ParentID
	newDoc.GrandParentIDTenant = doc.ParentIDTenant
	newDoc.ParentID = protoID
	newDoc.ParentIDTenant = protoTenant
	newDoc.CloneID = ""
	newDoc.CloneTenant = ""
	now := util.NowISO()
	newDoc.Created = now
	newDoc.Updated = now

	def, err := s.engine.ResolveWorkflowForDocument(tenantID, newDoc)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, fmt.Errorf("no workflow resolvable for clone of %s in tenant %s", protoID, tenantID)
	}
	defaultState := def.DefaultState()
	if defaultState == nil {
		return nil, fmt.Errorf("workflow %s has no default state", def.ID)
	}
	newDoc.Status = defaultState.ID
	if _, err := s.engine.MutateStateForItem(def, nil, newDoc); err != nil {
		return nil, err
	}

	s.invalidateDocument(tenantID, newDoc.ID)
	stored, err := s.rows.Put(TABLE_TENANT_DOCUMENTS, tenantID, newDoc.ID, newDoc.Record(), persistence.CREATE_OR_FAIL)
	if err != nil {
		return nil, err
	}
	if _, err := s.blobs.CopyByPrefix(protoTenant, protoID+"-", tenantID, newDoc.ID+"-"); err != nil {
		// no document without its parts: remove the dangling row
		if delErr := s.DeleteDocument(tenantID, newDoc.ID); delErr != nil {
			logger.Error("failed to delete document after part copy failure",
				zap.String("id", newDoc.ID), zap.Error(delErr))
		}
		return nil, err
	}
	return model.DocumentFromRecord(stored), nil
}

// DeleteDocument removes the row and drops cached reads. Documents are
// only deleted as clone rollback or harness cleanup.
func (s *Service) DeleteDocument(tenantID string, documentID string) error {
	s.invalidateDocument(tenantID, documentID)
	return s.rows.Delete(TABLE_TENANT_DOCUMENTS, tenantID, documentID)
}

func (s *Service) PutDocumentPart(tenantID string, documentID string, part string, content any) error {
	if err := s.blobs.PutJSON(tenantID, documentID+"-"+part, content); err != nil {
		return err
	}
	s.invalidateDocument(tenantID, documentID)
	return nil
}

// DangerouslyOverrideDocumentValues writes raw field values onto the row,
// bypassing the workflow engine entirely. Acceptance-harness escape
// hatch.
func (s *Service) DangerouslyOverrideDocumentValues(tenantID string, documentID string, values map[string]any) (*model.Document, error) {
	record, err := s.rows.Get(TABLE_TENANT_DOCUMENTS, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	for k, v := range values {
		if model.IsScalar(v) {
			record[k] = v
		}
	}
	s.invalidateDocument(tenantID, documentID)
	stored, err := s.rows.Put(TABLE_TENANT_DOCUMENTS, tenantID, documentID, record, persistence.CREATE_OR_OVERWRITE)
	if err != nil {
		return nil, err
	}
	return model.DocumentFromRecord(stored), nil
}
