package websvc

import (
	"net/http"
	"strconv"

	"github.com/mkrupp/chroniclex/internal/domain"
	"github.com/mkrupp/chroniclex/internal/infra/logging"
)

const (
	msgBlankPost     = "Title and content cannot be empty."
	msgNotPostAuthor = "You are not authorized to edit this post."
	msgPostDeleted   = "Post deleted."

	msgListFailed   = "Failed to fetch blog posts."
	msgGetFailed    = "Failed to fetch blog post details."
	msgCreateFailed = "Failed to create blog post. Please try again."
	msgUpdateFailed = "Failed to update blog post. Please try again."
	msgDeleteFailed = "Failed to delete blog post."
)

type listData struct {
	Posts      []domain.Post
	Pagination pagination
}

type detailData struct {
	Post        domain.Post
	IsAuthor    bool
	DeleteError string
}

type formData struct {
	Heading    string
	Submit     string
	Action     string
	DiscardURL string
	Input      domain.PostInput
	PageError  string
}

type deleteData struct {
	Post domain.Post
}

// HandleList renders one page of posts. A missing or invalid page number
// shows the first page.
func (ht *HTTPTransport) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageNum, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || pageNum < 1 {
		pageNum = 1
	}

	posts, err := ht.blogs.List(ctx, pageNum)
	if err != nil {
		ht.render(w, r, errorStatus(err), pageList, page{
			Title: "Posts",
			Error: domain.DisplayMessage(err, msgListFailed),
		})

		return
	}

	ht.render(w, r, http.StatusOK, pageList, page{
		Title: "Posts",
		Data: listData{
			Posts: posts.Results,
			Pagination: pagination{
				Page:       pageNum,
				TotalPages: posts.TotalPages(ht.cfg.PageSize),
			},
		},
	})
}

// HandleDetail renders one post. Edit and delete are offered only to the
// post's author as far as the session knows it.
func (ht *HTTPTransport) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		ht.HandleNotFound(w, r)

		return
	}

	post, err := ht.blogs.Get(r.Context(), id)
	if err != nil {
		ht.render(w, r, errorStatus(err), pageDetail, page{
			Title: "Post",
			Error: domain.DisplayMessage(err, msgGetFailed),
		})

		return
	}

	ht.renderDetail(w, r, http.StatusOK, post, "")
}

func (ht *HTTPTransport) renderDetail(w http.ResponseWriter, r *http.Request, status int, post domain.Post, deleteErr string) {
	v := viewer(r)

	ht.render(w, r, status, pageDetail, page{
		Title: post.Title,
		Data: detailData{
			Post:        post,
			IsAuthor:    v.Authenticated && domain.IsAuthor(v.User, post),
			DeleteError: deleteErr,
		},
	})
}

// HandleCreate renders the new post form and publishes it on submit.
func (ht *HTTPTransport) HandleCreate(w http.ResponseWriter, r *http.Request) {
	action, _ := ht.url(RouteBlogNew)
	discard, _ := ht.url(RouteBlogList)

	data := formData{
		Heading:    "Create Post",
		Submit:     "Publish Post",
		Action:     action,
		DiscardURL: discard,
	}

	if r.Method != http.MethodPost {
		ht.render(w, r, http.StatusOK, pageForm, page{Title: data.Heading, Data: data})

		return
	}

	data.Input = postInput(r)

	if data.Input.Blank() {
		ht.render(w, r, http.StatusUnprocessableEntity, pageForm, page{Title: data.Heading, Error: msgBlankPost, Data: data})

		return
	}

	post, err := ht.blogs.Create(r.Context(), data.Input)
	if err != nil {
		ht.render(w, r, errorStatus(err), pageForm, page{
			Title: data.Heading,
			Error: domain.DisplayMessage(err, msgCreateFailed),
			Data:  data,
		})

		return
	}

	ht.redirect(w, r, RouteBlogDetail, idParam, post.ID)
}

// HandleEdit renders the edit form prefilled with the post and saves it on
// submit. A signed-in user known not to be the author gets an error page
// instead of the form; the backend has the final say either way.
func (ht *HTTPTransport) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := postID(r)
	if err != nil {
		ht.HandleNotFound(w, r)

		return
	}

	action, _ := ht.url(RouteBlogEdit, idParam, id)
	discard, _ := ht.url(RouteBlogDetail, idParam, id)

	data := formData{
		Heading:    "Edit Your Blog Post",
		Submit:     "Save Changes",
		Action:     action,
		DiscardURL: discard,
	}

	post, err := ht.blogs.Get(ctx, id)
	if err != nil {
		data.PageError = domain.DisplayMessage(err, msgGetFailed)
		ht.render(w, r, errorStatus(err), pageForm, page{Title: data.Heading, Data: data})

		return
	}

	if v := viewer(r); v.User != nil && !domain.IsAuthor(v.User, post) {
		ht.log.WarnContext(ctx, "edit by non-author refused", logging.Group("post", "id", id, "author", post.Author.String()))

		data.PageError = msgNotPostAuthor
		ht.render(w, r, http.StatusForbidden, pageForm, page{Title: data.Heading, Data: data})

		return
	}

	if r.Method != http.MethodPost {
		data.Input = domain.PostInput{Title: post.Title, Content: post.Content}
		ht.render(w, r, http.StatusOK, pageForm, page{Title: data.Heading, Data: data})

		return
	}

	data.Input = postInput(r)

	if data.Input.Blank() {
		ht.render(w, r, http.StatusUnprocessableEntity, pageForm, page{Title: data.Heading, Error: msgBlankPost, Data: data})

		return
	}

	if _, err := ht.blogs.Update(ctx, id, data.Input); err != nil {
		ht.render(w, r, errorStatus(err), pageForm, page{
			Title: data.Heading,
			Error: domain.DisplayMessage(err, msgUpdateFailed),
			Data:  data,
		})

		return
	}

	ht.redirect(w, r, RouteBlogDetail, idParam, id)
}

// HandleDelete asks for confirmation on GET and deletes on POST. A failed
// delete shows the post again with the error.
func (ht *HTTPTransport) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := postID(r)
	if err != nil {
		ht.HandleNotFound(w, r)

		return
	}

	if r.Method != http.MethodPost {
		post, err := ht.blogs.Get(ctx, id)
		if err != nil {
			ht.render(w, r, errorStatus(err), pageDelete, page{
				Title: "Delete Post",
				Error: domain.DisplayMessage(err, msgGetFailed),
			})

			return
		}

		ht.render(w, r, http.StatusOK, pageDelete, page{Title: "Delete Post", Data: deleteData{Post: post}})

		return
	}

	if err := ht.blogs.Delete(ctx, id); err != nil {
		deleteErr := domain.DisplayMessage(err, msgDeleteFailed)

		post, getErr := ht.blogs.Get(ctx, id)
		if getErr != nil {
			ht.render(w, r, errorStatus(err), pageDetail, page{Title: "Post", Error: deleteErr})

			return
		}

		ht.renderDetail(w, r, errorStatus(err), post, deleteErr)

		return
	}

	ht.flashes.add(w, r, msgPostDeleted)
	ht.redirect(w, r, RouteBlogList)
}

func postInput(r *http.Request) domain.PostInput {
	return domain.PostInput{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
	}
}
