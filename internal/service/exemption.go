package service

// ExemptionPolicy решает, кому разрешён ghost-режим. Абстракция вместо
// зашитой константы: список можно вынести в конфиг или таблицу ролей,
// не трогая admission-логику.
type ExemptionPolicy interface {
	IsExempt(callerID string) bool
}

// AllowList — фиксированный список идентификаторов из конфига.
type AllowList struct {
	ids map[string]struct{}
}

func NewAllowList(callerIDs []string) *AllowList {
	ids := make(map[string]struct{}, len(callerIDs))
	for _, id := range callerIDs {
		ids[id] = struct{}{}
	}
	return &AllowList{ids: ids}
}

func (a *AllowList) IsExempt(callerID string) bool {
	_, ok := a.ids[callerID]
	return ok
}
