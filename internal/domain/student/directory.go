package student

import "slices"

// ══════════════════════════════════════════════════════════════════════════════
// STUDY DEPT AGGREGATE
// Справочник студентов: хранит записи в порядке добавления и гарантирует,
// что никакие две записи не равны по доменному ключу.
// ══════════════════════════════════════════════════════════════════════════════

// StudyDept - справочник студентов.
//
// Не потокобезопасен: вызывающая сторона обеспечивает единственного писателя.
// Search и Suggest не изменяют состояние.
type StudyDept struct {
	students []Student        // порядок добавления
	index    map[Key]Identity // вторичный индекс по доменному ключу
	lastID   Identity
}

// NewStudyDept создаёт пустой справочник.
func NewStudyDept() *StudyDept {
	return &StudyDept{
		students: make([]Student, 0),
		index:    make(map[Key]Identity),
	}
}

// Len возвращает количество хранимых студентов.
func (d *StudyDept) Len() int {
	return len(d.students)
}

// ─────────────────────────────────────────────────────────────────────────────
// Storage & uniqueness
// ─────────────────────────────────────────────────────────────────────────────

// AddStudent добавляет копию s в конец справочника, если равного студента
// ещё нет. При отказе состояние не меняется.
func (d *StudyDept) AddStudent(s Student) bool {
	key := s.Key()
	if _, exists := d.index[key]; exists {
		return false
	}

	d.lastID++
	s.id = d.lastID

	d.students = append(d.students, s)
	d.index[key] = s.id
	return true
}

// DelStudent удаляет студента, равного s по имени, дате рождения и году
// поступления. Идентичность s не учитывается.
func (d *StudyDept) DelStudent(s Student) bool {
	key := s.Key()
	id, exists := d.index[key]
	if !exists {
		return false
	}

	pos := slices.IndexFunc(d.students, func(st Student) bool {
		return st.id == id
	})
	if pos < 0 {
		// Индекс и список расходятся: не трогаем ни то, ни другое.
		return false
	}

	d.students = slices.Delete(d.students, pos, pos+1)
	delete(d.index, key)
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Queries
// ─────────────────────────────────────────────────────────────────────────────

// Lookup возвращает хранимую копию студента, равного s, вместе с выданной
// ему идентичностью.
func (d *StudyDept) Lookup(s Student) (Student, bool) {
	id, exists := d.index[s.Key()]
	if !exists {
		return Student{}, false
	}
	pos := slices.IndexFunc(d.students, func(st Student) bool {
		return st.id == id
	})
	if pos < 0 {
		return Student{}, false
	}
	return d.students[pos], true
}

// Search возвращает новый срез студентов, удовлетворяющих фильтру,
// упорядоченный устойчивой сортировкой. Равные по сортировке записи
// сохраняют порядок добавления.
func (d *StudyDept) Search(f Filter, s Sort) []Student {
	result := make([]Student, 0, len(d.students))
	for _, st := range d.students {
		if f.Matches(st) {
			result = append(result, st)
		}
	}

	if !s.IsEmpty() {
		slices.SortStableFunc(result, s.Compare)
	}
	return result
}

// Suggest возвращает различные полные имена, содержащие каждое слово запроса
// хотя бы один раз, в лексикографическом порядке. Повторы слов в запросе
// схлопываются; пустой запрос подходит любому имени.
func (d *StudyDept) Suggest(query string) []string {
	want := wordSet(query)

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, st := range d.students {
		if _, dup := seen[st.Name]; dup {
			continue
		}
		if !containsAll(wordSet(st.Name), want) {
			continue
		}
		seen[st.Name] = struct{}{}
		names = append(names, st.Name)
	}

	slices.Sort(names)
	return names
}

// containsAll сообщает, что have - надмножество want.
func containsAll(have, want map[string]struct{}) bool {
	for w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}
