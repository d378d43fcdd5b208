package web

import (
	"net/http"

	"finview/internal/core"
	"finview/internal/log"
)

type categoriesPage struct {
	basePage
	Categories []core.Category
}

func (s *Server) handleCategoriesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cats, err := s.cats.ListCategories(ctx)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Category list failed",
			log.FieldOperation, log.OpList, log.FieldError, err)
		s.fail(w, r, err, "/")
		return
	}

	s.render(w, r, "categories.html", categoriesPage{
		basePage:   s.newBasePage(),
		Categories: cats,
	})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.notices.SetError("Invalid form submission.")
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	in := core.CategoryInput{Name: sanitizeInput(r.Form.Get("name"))}
	if err := in.Validate(); err != nil {
		s.notices.SetError(err.Error())
		http.Redirect(w, r, "/categories", http.StatusSeeOther)
		return
	}

	created, err := s.cats.CreateCategory(ctx, in)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Category create failed",
			log.FieldOperation, log.OpCreate,
			log.FieldCategoryName, in.Name,
			log.FieldError, err)
		s.fail(w, r, err, "/categories")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Category created",
		log.FieldOperation, log.OpCreate,
		log.FieldCategoryID, created.ID,
		log.FieldCategoryName, created.Name)
	s.notices.SetSuccess("Category added.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := s.cats.DeleteCategory(ctx, id); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Category delete failed",
			log.FieldOperation, log.OpDelete,
			log.FieldCategoryID, id,
			log.FieldError, err)
		s.fail(w, r, err, "/categories")
		return
	}

	log.FromContext(ctx).InfoContext(ctx, "Category deleted",
		log.FieldOperation, log.OpDelete, log.FieldCategoryID, id)
	// Deleting a category renames affected expenses upstream, so the
	// cached transactions are stale.
	s.invalidateSnapshot()
	s.notices.SetSuccess("Category deleted.")
	http.Redirect(w, r, "/categories", http.StatusSeeOther)
}
