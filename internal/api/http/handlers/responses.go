package handlers

import (
	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
)

func employeeResponse(e *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:                     e.ID,
		EmployeeID:             e.EmployeeNumber,
		IPPISNumber:            e.IPPISNumber,
		FirstName:              e.FirstName,
		LastName:               e.LastName,
		MiddleName:             e.MiddleName,
		FullName:               e.FullName(),
		Email:                  e.Email,
		Phone:                  e.Phone,
		Role:                   e.Role,
		DepartmentID:           e.DepartmentID,
		ZoneCode:               e.ZoneCode,
		StateCode:              e.StateCode,
		GradeLevel:             e.GradeLevel,
		Step:                   e.Step,
		DateOfBirth:            dto.NewDate(e.DateOfBirth),
		DateOfFirstAppointment: dto.NewDate(e.DateOfFirstAppointment),
		DateOfRetirement:       dto.DatePtr(e.DateOfRetirement),
		LastPromotionDate:      dto.DatePtr(e.LastPromotionDate),
		LastExaminationDate:    dto.DatePtr(e.LastExaminationDate),
		Active:                 e.Active,
		PasswordChangeRequired: e.PasswordChangeRequired,
		CreatedAt:              e.CreatedAt,
		UpdatedAt:              e.UpdatedAt,
	}
}

func employeeResponses(list []domain.Employee) []dto.EmployeeResponse {
	out := make([]dto.EmployeeResponse, 0, len(list))
	for i := range list {
		out = append(out, employeeResponse(&list[i]))
	}
	return out
}

func zoneResponse(z *domain.Zone) dto.ZoneResponse {
	return dto.ZoneResponse{ID: z.ID, Code: z.Code, Name: z.Name, DirectorID: z.DirectorID, CreatedAt: z.CreatedAt}
}

func stateResponse(s *domain.State) dto.StateResponse {
	return dto.StateResponse{
		ID:            s.ID,
		Code:          s.Code,
		Name:          s.Name,
		ZoneCode:      s.ZoneCode,
		CoordinatorID: s.CoordinatorID,
		CreatedAt:     s.CreatedAt,
	}
}

func lgaResponse(l *domain.LGA) dto.LGAResponse {
	return dto.LGAResponse{ID: l.ID, Code: l.Code, Name: l.Name, StateCode: l.StateCode}
}

func departmentResponse(d *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:         d.ID,
		Code:       d.Code,
		Name:       d.Name,
		DirectorID: d.DirectorID,
		Active:     d.Active,
		CreatedAt:  d.CreatedAt,
	}
}

func gradeLevelResponse(g *domain.GradeLevel) dto.GradeLevel {
	return dto.GradeLevel{
		Level:            g.Level,
		PerDiem:          g.PerDiem,
		LocalRunning:     g.LocalRunning,
		Estacode:         g.Estacode,
		AssumptionOfDuty: g.AssumptionOfDuty,
	}
}

func workflowResponse(w *domain.Workflow) dto.WorkflowResponse {
	steps := make([]dto.WorkflowStepResponse, 0, len(w.Steps))
	for _, s := range w.Steps {
		steps = append(steps, dto.WorkflowStepResponse{Name: s.Name, StepOrder: s.StepOrder, RequiredRole: s.RequiredRole})
	}
	return dto.WorkflowResponse{
		ID:          w.ID,
		Name:        w.Name,
		RecordType:  w.RecordType,
		Description: w.Description,
		Active:      w.Active,
		Steps:       steps,
		CreatedAt:   w.CreatedAt,
	}
}

func instanceResponse(i *domain.WorkflowInstance) dto.InstanceResponse {
	return dto.InstanceResponse{
		ID:          i.ID,
		WorkflowID:  i.WorkflowID,
		RecordType:  i.RecordType,
		RecordID:    i.RecordID,
		InitiatorID: i.InitiatorID,
		CurrentStep: i.CurrentStep,
		Status:      i.Status,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
		CompletedAt: i.CompletedAt,
	}
}

func instanceDetailResponse(d *service.InstanceDetail) dto.InstanceDetailResponse {
	resp := dto.InstanceDetailResponse{
		InstanceResponse: instanceResponse(d.Instance),
		Workflow:         workflowResponse(d.Workflow),
		Approvals:        make([]dto.ApprovalResponse, 0, len(d.Approvals)),
	}
	if step, ok := d.CurrentStep(); ok {
		resp.CurrentStepName = step.Name
	}
	for _, a := range d.Approvals {
		resp.Approvals = append(resp.Approvals, dto.ApprovalResponse{
			StepOrder:  a.StepOrder,
			StepName:   a.StepName,
			ApproverID: a.ApproverID,
			Decision:   a.Decision,
			Comment:    a.Comment,
			DecidedAt:  a.DecidedAt,
		})
	}
	return resp
}

func leaveResponse(l *domain.LeaveRequest) dto.LeaveResponse {
	return dto.LeaveResponse{
		ID:              l.ID,
		EmployeeID:      l.EmployeeID,
		LeaveType:       l.LeaveType,
		StartDate:       dto.NewDate(l.StartDate),
		EndDate:         dto.NewDate(l.EndDate),
		Days:            l.Days(),
		Reason:          l.Reason,
		Status:          l.Status,
		DecidedBy:       l.DecidedBy,
		DecidedAt:       l.DecidedAt,
		DecisionComment: l.DecisionComment,
		CreatedAt:       l.CreatedAt,
	}
}

func leaveResponses(list []domain.LeaveRequest) []dto.LeaveResponse {
	out := make([]dto.LeaveResponse, 0, len(list))
	for i := range list {
		out = append(out, leaveResponse(&list[i]))
	}
	return out
}

func promotionResponse(p *domain.Promotion) dto.PromotionResponse {
	return dto.PromotionResponse{
		ID:             p.ID,
		EmployeeID:     p.EmployeeID,
		FromGradeLevel: p.FromGradeLevel,
		FromStep:       p.FromStep,
		ToGradeLevel:   p.ToGradeLevel,
		ToStep:         p.ToStep,
		PromotionDate:  dto.NewDate(p.PromotionDate),
		EffectiveDate:  dto.NewDate(p.EffectiveDate),
		ApprovedBy:     p.ApprovedBy,
		Remarks:        p.Remarks,
		CreatedAt:      p.CreatedAt,
	}
}

func examinationResponse(e *domain.Examination) dto.ExaminationResponse {
	return dto.ExaminationResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		ExamType:     e.ExamType,
		ExamDate:     dto.NewDate(e.ExamDate),
		Score:        e.Score,
		PassingScore: e.PassingScore,
		Result:       e.Result,
		Remarks:      e.Remarks,
		CreatedAt:    e.CreatedAt,
	}
}

func retirementResponse(r *domain.Retirement) dto.RetirementResponse {
	return dto.RetirementResponse{
		ID:             r.ID,
		EmployeeID:     r.EmployeeID,
		Reason:         r.Reason,
		RetirementDate: dto.NewDate(r.RetirementDate),
		Remarks:        r.Remarks,
		ProcessedBy:    r.ProcessedBy,
		CreatedAt:      r.CreatedAt,
	}
}

func taskResponse(t *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AssignerID:  t.AssignerID,
		AssigneeID:  t.AssigneeID,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     dto.NewDate(t.DueDate),
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func subtaskResponse(s *domain.Subtask) dto.SubtaskResponse {
	return dto.SubtaskResponse{ID: s.ID, Title: s.Title, Completed: s.Completed}
}

func projectResponse(p *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		DepartmentID: p.DepartmentID,
		StateCode:    p.StateCode,
		ManagerID:    p.ManagerID,
		StartDate:    dto.NewDate(p.StartDate),
		EndDate:      dto.NewDate(p.EndDate),
		Status:       p.Status,
		Budget:       p.Budget,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func milestoneResponse(m *domain.Milestone) dto.MilestoneResponse {
	return dto.MilestoneResponse{
		ID:            m.ID,
		ProjectID:     m.ProjectID,
		Name:          m.Name,
		DueDate:       dto.NewDate(m.DueDate),
		CompletedDate: dto.DatePtr(m.CompletedDate),
	}
}

func milestoneResponses(list []domain.Milestone) []dto.MilestoneResponse {
	out := make([]dto.MilestoneResponse, 0, len(list))
	for i := range list {
		out = append(out, milestoneResponse(&list[i]))
	}
	return out
}

// mailResponse renders a mail for viewer. BCC rows are only shown to the
// sender.
func mailResponse(m *domain.Mail, viewerID string) dto.MailResponse {
	resp := dto.MailResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		Subject:    m.Subject,
		Body:       m.Body,
		ParentID:   m.ParentID,
		Draft:      m.Draft,
		Recipients: make([]dto.RecipientResponse, 0, len(m.Recipients)),
		CreatedAt:  m.CreatedAt,
	}
	for _, r := range m.Recipients {
		if r.Kind == domain.RecipientBCC && m.SenderID != viewerID {
			continue
		}
		item := dto.RecipientResponse{EmployeeID: r.EmployeeID, Kind: r.Kind}
		if r.EmployeeID == viewerID {
			item.ReadAt = r.ReadAt
		}
		resp.Recipients = append(resp.Recipients, item)
	}
	return resp
}

func chatResponse(c *domain.Chat) dto.ChatResponse {
	members := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.LeftAt == nil {
			members = append(members, p.EmployeeID)
		}
	}
	return dto.ChatResponse{
		ID:           c.ID,
		Name:         c.Name,
		IsGroup:      c.IsGroup,
		CreatedBy:    c.CreatedBy,
		Participants: members,
		CreatedAt:    c.CreatedAt,
	}
}

func chatMessageResponse(m *domain.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{ID: m.ID, ChatID: m.ChatID, SenderID: m.SenderID, Body: m.Body, CreatedAt: m.CreatedAt}
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.ReadAt != nil,
		CreatedAt: n.CreatedAt,
	}
}

func performanceReviewResponse(r *domain.PerformanceReview) dto.PerformanceReviewResponse {
	return dto.PerformanceReviewResponse{
		ID:               r.ID,
		EmployeeID:       r.EmployeeID,
		ReviewerID:       r.ReviewerID,
		ReviewDate:       dto.NewDate(r.ReviewDate),
		PerformanceScore: r.Score,
		Comments:         r.Comments,
		GoalsSet:         r.GoalsSet,
		CreatedAt:        r.CreatedAt,
	}
}

func transferResponse(t *domain.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:               t.ID,
		EmployeeID:       t.EmployeeID,
		FromDepartmentID: t.FromDepartmentID,
		ToDepartmentID:   t.ToDepartmentID,
		TransferDate:     dto.NewDate(t.TransferDate),
		Reason:           t.Reason,
		ApprovedBy:       t.ApprovedBy,
		CreatedAt:        t.CreatedAt,
	}
}

func trainingResponse(t *domain.Training) dto.TrainingResponse {
	participants := t.ParticipantIDs
	if participants == nil {
		participants = []string{}
	}
	return dto.TrainingResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		StartDate:      dto.NewDate(t.StartDate),
		EndDate:        dto.NewDate(t.EndDate),
		Days:           t.Days(),
		Trainer:        t.Trainer,
		CreatedBy:      t.CreatedBy,
		ParticipantIDs: participants,
		CreatedAt:      t.CreatedAt,
	}
}

func trainingResponses(list []domain.Training) []dto.TrainingResponse {
	out := make([]dto.TrainingResponse, 0, len(list))
	for i := range list {
		out = append(out, trainingResponse(&list[i]))
	}
	return out
}

func announcementResponse(a *domain.Announcement) dto.AnnouncementResponse {
	return dto.AnnouncementResponse{
		ID:           a.ID,
		DepartmentID: a.DepartmentID,
		Title:        a.Title,
		Content:      a.Content,
		AuthorID:     a.AuthorID,
		Active:       a.Active,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func newsletterResponse(n *domain.Newsletter) dto.NewsletterResponse {
	departments := n.DepartmentIDs
	if departments == nil {
		departments = []string{}
	}
	return dto.NewsletterResponse{
		ID:            n.ID,
		Title:         n.Title,
		Content:       n.Content,
		AuthorID:      n.AuthorID,
		DepartmentIDs: departments,
		Published:     n.Published(),
		PublishedAt:   n.PublishedAt,
		CreatedAt:     n.CreatedAt,
	}
}
