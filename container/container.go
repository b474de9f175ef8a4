package container

import (
	"time"

	"github.com/docuflow/docuflow/cache"
	"github.com/docuflow/docuflow/config"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/persistence/inmem"
	rd "github.com/docuflow/docuflow/persistence/redis"
	"github.com/docuflow/docuflow/tenant"
	"github.com/docuflow/docuflow/workflow"
)

type DIContainer struct {
	initialized   bool
	rowStore      persistence.RowStore
	blobStore     persistence.BlobStore
	cache         *cache.Cache
	engine        *workflow.Engine
	tenantService *tenant.Service
	auditLog      *tenant.AuditLog
}

func NewDiContainer() *DIContainer {
	return &DIContainer{
		initialized: false,
	}
}

func (d *DIContainer) setInitialized() {
	d.initialized = true
}

func (d *DIContainer) Init(conf config.Config) error {
	defer d.setInitialized()

	switch conf.StorageType {
	case config.STORAGE_TYPE_REDIS:
		rdConf := rd.Config{
			Addrs:     conf.RedisConfig.Addrs,
			Namespace: conf.RedisConfig.Namespace,
		}
		d.rowStore = rd.NewRedisRowStore(rdConf)
		d.blobStore = rd.NewRedisBlobStore(rdConf)
	case config.STORAGE_TYPE_INMEM:
		d.rowStore = inmem.NewInMemRowStore()
		d.blobStore = inmem.NewInMemBlobStore()
	}

	expiry := time.Duration(conf.CacheExpirySeconds) * time.Second
	d.cache = cache.New(expiry, conf.CacheSweepSeconds)
	d.engine = workflow.NewEngine(d.rowStore, d.blobStore, d.cache, expiry)

	if conf.AuditLogFile != "" {
		audit, err := tenant.NewAuditLog(conf.AuditLogFile)
		if err != nil {
			return err
		}
		d.auditLog = audit
	}
	d.tenantService = tenant.NewService(d.rowStore, d.blobStore, d.cache, d.engine, d.auditLog)
	// dependency inversion: the engine reaches the tenant service only
	// through the TenantDocumentSink interface
	d.engine.BindSink(d.tenantService)
	return nil
}

func (d *DIContainer) GetRowStore() persistence.RowStore {
	if !d.initialized {
		panic("persistence not initialized")
	}
	return d.rowStore
}

func (d *DIContainer) GetBlobStore() persistence.BlobStore {
	if !d.initialized {
		panic("persistence not initialized")
	}
	return d.blobStore
}

func (d *DIContainer) GetCache() *cache.Cache {
	if !d.initialized {
		panic("cache not initialized")
	}
	return d.cache
}

func (d *DIContainer) GetWorkflowEngine() *workflow.Engine {
	if !d.initialized {
		panic("workflow engine not initialized")
	}
	return d.engine
}

func (d *DIContainer) GetTenantService() *tenant.Service {
	if !d.initialized {
		panic("tenant service not initialized")
	}
	return d.tenantService
}

func (d *DIContainer) Stop() {
	if d.cache != nil {
		d.cache.Stop()
	}
}
