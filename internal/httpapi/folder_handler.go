package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/matt-ortiz/PyScheduler/internal/common"
	"github.com/matt-ortiz/PyScheduler/internal/environment"
	"github.com/matt-ortiz/PyScheduler/internal/model"
)

type folderRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

func (s *Server) listFolders(c *gin.Context) {
	folders, err := s.store.ListFolders(c.Request.Context())
	if err != nil {
		common.Error(c, err)
		return
	}
	common.Success(c, folders)
}

func (s *Server) createFolder(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, err.Error()))
		return
	}

	f := &model.Folder{Name: req.Name, ParentID: req.ParentID}
	if err := s.store.CreateFolder(c.Request.Context(), f); err != nil {
		common.Error(c, err)
		return
	}
	common.Created(c, f)
}

// deleteFolder cascades the DB delete (store.DeleteFolder already drops
// every descendant Script/Trigger/ExecutionRecord transactionally) and
// then, best-effort, removes the folder's entire on-disk subtree. The
// path must be resolved before the DB delete: it walks the folder's
// ancestry through store.GetFolder, which stops working the moment the
// folder (or a parent) is gone.
func (s *Server) deleteFolder(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		common.Error(c, common.NewErrNo(common.KindValidation, "invalid folder id"))
		return
	}
	ctx := c.Request.Context()
	folderPath, err := environment.FolderPathFor(ctx, s.store, &id)
	if err != nil {
		common.Error(c, err)
		return
	}

	if err := s.store.DeleteFolder(ctx, id); err != nil {
		common.Error(c, err)
		return
	}
	if err := s.env.CleanupFolder(folderPath); err != nil {
		common.GetLogger().Sugar().Warnw("cleanup folder directory", "folder_id", id, "err", err)
	}
	common.Success(c, nil)
}
