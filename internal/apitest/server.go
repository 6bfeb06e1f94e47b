// Package apitest is an in-memory stand-in for the inventory-loan backend.
// It implements every endpoint the client consumes, including the server-side
// effects the client must observe through re-fetches (quantity reservation on
// approval, due-date shifts on extension, restocking on return).
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"labloan-client/internal/model"
)

const loansPerPage = 10

type account struct {
	user     model.User
	password string
	token    string
}

// Server is the fake backend. Zero values are not usable; call New.
type Server struct {
	mu       sync.Mutex
	accounts []*account
	items    map[int64]*model.Item
	loans    map[int64]*model.Loan
	nextItem int64
	nextLoan int64

	srv *httptest.Server
}

// New starts a fake backend on a local listener.
func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		items: make(map[int64]*model.Item),
		loans: make(map[int64]*model.Loan),
	}

	r := gin.New()
	r.POST("/login", s.login)
	r.POST("/register", s.register)

	auth := r.Group("", s.authenticate)
	auth.POST("/logout", s.logout)
	auth.GET("/user", s.currentUser)
	auth.GET("/items", s.listItems)
	auth.GET("/item-conditions", s.itemConditions)
	auth.POST("/items", s.createItem)
	auth.PUT("/items/:id", s.updateItem)
	auth.DELETE("/items/:id", s.deleteItem)
	auth.GET("/dashboard", s.dashboard)
	auth.POST("/loans", s.submitLoan)
	auth.GET("/loans", s.listLoans)
	auth.GET("/loans/active", s.listActiveLoans)
	auth.POST("/loans/:id/approve", s.loanAction("approve"))
	auth.POST("/loans/:id/reject", s.loanAction("reject"))
	auth.POST("/loans/:id/approve-extension", s.loanAction("approve-extension"))
	auth.POST("/loans/:id/reject-extension", s.loanAction("reject-extension"))
	auth.POST("/loans/:id/request-extension", s.loanAction("request-extension"))
	auth.PATCH("/loans/:id", s.patchLoan)

	s.srv = httptest.NewServer(r)
	return s
}

// URL is the base URL clients should be configured with.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the listener down.
func (s *Server) Close() {
	s.srv.Close()
}

// --- Seeding and inspection ---

// SeedUser registers an account recognized by the given token.
func (s *Server) SeedUser(token, password string, u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = int64(len(s.accounts) + 1)
	}
	s.accounts = append(s.accounts, &account{user: u, password: password, token: token})
	return u
}

// SeedItem adds a catalog entry.
func (s *Server) SeedItem(item model.Item) model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == 0 {
		s.nextItem++
		item.ID = s.nextItem
	} else if item.ID > s.nextItem {
		s.nextItem = item.ID
	}
	stored := item
	s.items[item.ID] = &stored
	return item
}

// SeedLoan adds a loan record.
func (s *Server) SeedLoan(loan model.Loan) model.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loan.ID == 0 {
		s.nextLoan++
		loan.ID = s.nextLoan
	} else if loan.ID > s.nextLoan {
		s.nextLoan = loan.ID
	}
	stored := loan
	s.loans[loan.ID] = &stored
	return loan
}

// Item returns a copy of the stored item for assertions.
func (s *Server) Item(id int64) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return model.Item{}, false
	}
	return *item, true
}

// Loan returns a copy of the stored loan for assertions.
func (s *Server) Loan(id int64) (model.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[id]
	if !ok {
		return model.Loan{}, false
	}
	return *loan, true
}

// --- Middleware ---

func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if len(header) <= len("Bearer ") || header[:len("Bearer ")] != "Bearer " {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
		return
	}
	token := header[len("Bearer "):]

	// Release the lock before c.Next(): handlers lock s.mu themselves, and
	// holding it across the chain would self-deadlock.
	s.mu.Lock()
	var matched *account
	for _, acct := range s.accounts {
		if acct.token == token {
			matched = acct
			break
		}
	}
	s.mu.Unlock()
	if matched != nil {
		c.Set("user", matched.user)
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
}

func caller(c *gin.Context) model.User {
	return c.MustGet("user").(model.User)
}

// --- Auth handlers ---

func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"error":   gin.H{"email": []string{"The email field is required."}},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.Email == req.Email && acct.password == req.Password {
			c.JSON(http.StatusOK, gin.H{"token": acct.token, "data": acct.user})
			return
		}
	}
	c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Name                 string     `json:"name"`
		Email                string     `json:"email"`
		Password             string     `json:"password"`
		PasswordConfirmation string     `json:"password_confirmation"`
		Role                 model.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"error":   gin.H{"name": []string{"The name field is required."}},
		})
		return
	}
	if req.Password != req.PasswordConfirmation {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"error":   gin.H{"password": []string{"The password confirmation does not match."}},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.Email == req.Email {
			c.JSON(http.StatusConflict, gin.H{"message": "The email has already been taken."})
			return
		}
	}
	user := model.User{
		ID:    int64(len(s.accounts) + 1),
		Name:  req.Name,
		Email: req.Email,
		Role:  model.RoleStudent,
	}
	s.accounts = append(s.accounts, &account{user: user, password: req.Password})
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "data": user})
}

func (s *Server) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, caller(c))
}

// --- Item handlers ---

func (s *Server) sortedItems() []model.Item {
	out := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) listItems(c *gin.Context) {
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if perPage <= 0 {
		perPage = 15
	}
	if page <= 0 {
		page = 1
	}

	s.mu.Lock()
	all := s.sortedItems()
	s.mu.Unlock()

	lastPage := (len(all) + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	lo := (page - 1) * perPage
	hi := lo + perPage
	if lo > len(all) {
		lo = len(all)
	}
	if hi > len(all) {
		hi = len(all)
	}

	c.JSON(http.StatusOK, gin.H{"data": model.PagedItems{
		Data:        all[lo:hi],
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       len(all),
	}})
}

func (s *Server) itemConditions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": []model.Condition{
		model.ConditionAvailable,
		model.ConditionUnderRepair,
		model.ConditionDamaged,
	}})
}

type itemInput struct {
	Name        string          `json:"name"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Condition   model.Condition `json:"condition"`
	Quantity    int             `json:"quantity"`
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if !caller(c).Role.Administrative() {
		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		return false
	}
	return true
}

func (s *Server) validItemInput(c *gin.Context, in *itemInput) bool {
	if err := c.ShouldBindJSON(in); err != nil || in.Name == "" || in.Code == "" || in.Location == "" || in.Condition == "" || in.Quantity < 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"error":   gin.H{"name": []string{"The name field is required."}},
		})
		return false
	}
	return true
}

func (s *Server) codeTaken(code string, exclude int64) bool {
	for _, item := range s.items {
		if item.Code == code && item.ID != exclude {
			return true
		}
	}
	return false
}

func (s *Server) createItem(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var in itemInput
	if !s.validItemInput(c, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTaken(in.Code, 0) {
		c.JSON(http.StatusConflict, gin.H{"message": "The code has already been taken."})
		return
	}
	s.nextItem++
	item := model.Item{
		ID:          s.nextItem,
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		Location:    in.Location,
		Condition:   in.Condition,
		Quantity:    in.Quantity,
	}
	s.items[item.ID] = &item
	c.JSON(http.StatusCreated, gin.H{"message": "Item created successfully", "data": item})
}

func (s *Server) updateItem(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var in itemInput
	if !s.validItemInput(c, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return
	}
	if s.codeTaken(in.Code, id) {
		c.JSON(http.StatusConflict, gin.H{"message": "The code has already been taken."})
		return
	}
	item.Name = in.Name
	item.Code = in.Code
	item.Description = in.Description
	item.Location = in.Location
	item.Condition = in.Condition
	item.Quantity = in.Quantity
	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully", "data": *item})
}

func (s *Server) deleteItem(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return
	}
	delete(s.items, id)
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

// --- Dashboard ---

func (s *Server) dashboard(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stats model.DashboardStats
	stats.TotalItems = len(s.items)
	stats.TotalUsers = len(s.accounts)

	activities := make([]model.Loan, 0, len(s.loans))
	for _, loan := range s.loans {
		switch loan.Status {
		case model.StatusBorrowed:
			stats.ActiveLoans++
		case model.StatusAwaiting:
			stats.PendingRequests++
		}
		activities = append(activities, s.withRefs(*loan))
	}
	sort.Slice(activities, func(i, j int) bool { return activities[i].ID > activities[j].ID })

	c.JSON(http.StatusOK, model.Dashboard{Stats: stats, RecentActivities: activities})
}

// withRefs attaches the referenced item and user, as the backend's eager
// loading does.
func (s *Server) withRefs(loan model.Loan) model.Loan {
	if item, ok := s.items[loan.ItemID]; ok {
		itemCopy := *item
		loan.Item = &itemCopy
	}
	for _, acct := range s.accounts {
		if acct.user.ID == loan.UserID {
			userCopy := acct.user
			loan.User = &userCopy
			break
		}
	}
	return loan
}

// --- Loan handlers ---

func (s *Server) submitLoan(c *gin.Context) {
	user := caller(c)

	var req struct {
		ItemID   int64      `json:"item_id"`
		LoanDate model.Date `json:"loan_date"`
		DueDate  model.Date `json:"due_date"`
		Quantity int        `json:"quantity"`
		Purpose  string     `json:"purpose"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "The given data was invalid."})
		return
	}
	if user.UnderPenalty(time.Now()) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "You are under an active penalty and cannot borrow items."})
		return
	}
	if req.Purpose == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": "The given data was invalid.",
			"error":   gin.H{"purpose": []string{"The purpose field is required."}},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[req.ItemID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Item not found"})
		return
	}
	if !item.Loanable() || req.Quantity < 1 || req.Quantity > item.Quantity {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "The requested quantity is not available."})
		return
	}

	s.nextLoan++
	loan := model.Loan{
		ID:       s.nextLoan,
		ItemID:   req.ItemID,
		UserID:   user.ID,
		Quantity: req.Quantity,
		Purpose:  req.Purpose,
		LoanDate: req.LoanDate,
		DueDate:  req.DueDate,
		Status:   model.StatusAwaiting,
	}
	s.loans[loan.ID] = &loan
	c.JSON(http.StatusCreated, gin.H{"message": "Loan request submitted successfully"})
}

func (s *Server) userLoans(user model.User, activeOnly bool) []model.Loan {
	var out []model.Loan
	for _, loan := range s.loans {
		if loan.UserID != user.ID {
			continue
		}
		if activeOnly && loan.Status != model.StatusBorrowed {
			continue
		}
		out = append(out, s.withRefs(*loan))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) pagedLoanListing(c *gin.Context, activeOnly bool) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	s.mu.Lock()
	all := s.userLoans(caller(c), activeOnly)
	s.mu.Unlock()

	lastPage := (len(all) + loansPerPage - 1) / loansPerPage
	if lastPage < 1 {
		lastPage = 1
	}
	lo := (page - 1) * loansPerPage
	hi := lo + loansPerPage
	if lo > len(all) {
		lo = len(all)
	}
	if hi > len(all) {
		hi = len(all)
	}

	c.JSON(http.StatusOK, gin.H{"data": model.PagedLoans{
		Data:        all[lo:hi],
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     loansPerPage,
		Total:       len(all),
	}})
}

func (s *Server) listLoans(c *gin.Context) {
	s.pagedLoanListing(c, false)
}

func (s *Server) listActiveLoans(c *gin.Context) {
	s.pagedLoanListing(c, true)
}

func (s *Server) loanAction(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if action != "request-extension" && !s.requireAdmin(c) {
			return
		}
		id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

		s.mu.Lock()
		defer s.mu.Unlock()
		loan, ok := s.loans[id]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "Loan not found"})
			return
		}

		switch action {
		case "approve":
			if !loan.AwaitingDecision() {
				c.JSON(http.StatusConflict, gin.H{"message": "Loan is not awaiting confirmation"})
				return
			}
			item := s.items[loan.ItemID]
			if item == nil || item.Quantity < loan.Quantity {
				c.JSON(http.StatusConflict, gin.H{"message": "Insufficient stock to approve this loan"})
				return
			}
			item.Quantity -= loan.Quantity
			loan.Status = model.StatusBorrowed
			c.JSON(http.StatusOK, gin.H{"message": "Loan approved"})

		case "reject":
			if !loan.AwaitingDecision() {
				c.JSON(http.StatusConflict, gin.H{"message": "Loan is not awaiting confirmation"})
				return
			}
			loan.Status = model.StatusRejected
			c.JSON(http.StatusOK, gin.H{"message": "Loan rejected"})

		case "approve-extension":
			if !loan.ExtensionPendingDecision() {
				c.JSON(http.StatusConflict, gin.H{"message": "No extension is awaiting a decision"})
				return
			}
			approved := true
			loan.ExtensionApproved = &approved
			loan.IsExtended = true
			loan.DueDate = model.NewDate(loan.DueDate.AddDate(0, 0, 7))
			c.JSON(http.StatusOK, gin.H{"message": "Extension approved"})

		case "reject-extension":
			if !loan.ExtensionPendingDecision() {
				c.JSON(http.StatusConflict, gin.H{"message": "No extension is awaiting a decision"})
				return
			}
			rejected := false
			loan.ExtensionApproved = &rejected
			c.JSON(http.StatusOK, gin.H{"message": "Extension rejected"})

		case "request-extension":
			if !loan.CanRequestExtension() {
				c.JSON(http.StatusConflict, gin.H{"message": "An extension cannot be requested for this loan"})
				return
			}
			loan.ExtensionRequested = true
			loan.ExtensionApproved = nil
			c.JSON(http.StatusOK, gin.H{"message": "Extension requested"})
		}
	}
}

func (s *Server) patchLoan(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	var req struct {
		Status model.LoanStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status != model.StatusReturned {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Unsupported status change"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Loan not found"})
		return
	}
	if loan.Status != model.StatusBorrowed {
		c.JSON(http.StatusConflict, gin.H{"message": "Only borrowed items can be returned"})
		return
	}

	loan.Status = model.StatusReturned
	now := model.NewDate(time.Now())
	loan.ReturnDate = &now
	if item, found := s.items[loan.ItemID]; found {
		item.Quantity += loan.Quantity
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item returned successfully"})
}
